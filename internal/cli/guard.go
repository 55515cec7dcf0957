package cli

import (
	"context"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/dmitrijs2005/blindauction/internal/access"
)

// allow runs the access guard for one command invocation. A redirect prints
// why and returns to the home prompt; a pending owner lookup asks the user to
// retry.
func (a *App) allow(ctx context.Context, required access.Role, command string) bool {
	var connected *ethcommon.Address
	if addr, ok := a.accounts.Connected(); ok {
		connected = &addr
	}

	in := access.Input{Connected: connected}
	if required == access.Owner {
		if _, err := a.owner.Resolve(ctx); err != nil {
			a.log.Warn(ctx, "owner lookup failed", "error", err)
		}
		in = a.owner.Input(connected)
	}

	g := &access.Guard{
		Required: required,
		Navigate: func() {
			switch {
			case connected == nil:
				printlnFn(command + " needs a connected account; run 'connect' first. Back to home.")
			default:
				printlnFn(command + " is only available to the contract owner. Back to home.")
			}
		},
	}

	switch g.Evaluate(in) {
	case access.Allow:
		return true
	case access.Pending:
		printlnFn("Still resolving the contract owner, try again in a moment.")
	}
	return false
}
