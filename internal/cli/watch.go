package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/blindauction/internal/auction"
	"github.com/dmitrijs2005/blindauction/internal/common"
)

// watch prints the progress of sub as it happens and keeps it attached
// until the app closes.
func (a *App) watch(sub *auction.Submission) {
	a.mu.Lock()
	a.active = append(a.active, sub)
	a.mu.Unlock()

	sub.OnChange(func(p auction.Progress) {
		switch p.Stage {
		case auction.Pending:
			printlnFn(fmt.Sprintf("[%s] broadcast %s, waiting for inclusion", sub.Kind, p.TxHash.Hex()))
		case auction.Confirming:
			printlnFn(fmt.Sprintf("[%s] included, waiting for confirmations", sub.Kind))
		case auction.Failed:
			printlnFn(fmt.Sprintf("[%s] failed: %s", sub.Kind, describe(p.Err)))
		}
	})
	sub.OnComplete(func() {
		msg := fmt.Sprintf("[%s] confirmed", sub.Kind)
		if id := sub.AuctionID(); id != nil && sub.Kind == auction.KindCreateAuction {
			msg = fmt.Sprintf("[%s] confirmed, auction #%s", sub.Kind, id)
		}
		printlnFn(msg)
	})
}

// awaitBroadcast blocks until sub is past the wallet (or finished), so
// prompts raised by the wallet do not race the REPL for stdin.
func (a *App) awaitBroadcast(ctx context.Context, sub *auction.Submission) {
	past := make(chan struct{}, 1)
	sub.OnChange(func(p auction.Progress) {
		if p.Stage >= auction.Pending {
			select {
			case past <- struct{}{}:
			default:
			}
		}
	})
	if sub.State().Stage >= auction.Pending {
		return
	}
	select {
	case <-past:
	case <-sub.Done():
	case <-ctx.Done():
	}
}

// describe renders err for the user by its kind.
func describe(err error) string {
	switch common.Kind(err) {
	case "validation":
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			names := make([]string, 0, len(verr.Fields))
			for name := range verr.Fields {
				names = append(names, name)
			}
			sort.Strings(names)
			lines := make([]string, 0, len(names))
			for _, name := range names {
				lines = append(lines, fmt.Sprintf("  %s: %s", name, verr.Fields[name]))
			}
			return "please fix:\n" + strings.Join(lines, "\n")
		}
	case "engine_not_ready":
		return "engine initializing, try again shortly"
	case "engine_failed":
		return "encryption engine unavailable: " + err.Error()
	case "user_rejected":
		return "signature rejected"
	case "operation_in_flight":
		return "a submission for this item is already in progress"
	case "unauthorized":
		return "not authorized: " + err.Error()
	}
	return err.Error()
}
