package txtrack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sethvargo/go-retry"

	bcommon "github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

// Backend is the node API used while polling; *ethclient.Client satisfies it.
type Backend interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// SubmitFunc asks the wallet to sign and broadcast, returning the hash.
type SubmitFunc func(ctx context.Context) (common.Hash, error)

// ReasonFunc explains why an included transaction reverted.
type ReasonFunc func(ctx context.Context, receipt *types.Receipt) string

type Config struct {
	// Depth is the number of blocks, counting the inclusion block, required
	// before a transaction is Confirmed.
	Depth         uint64
	PollInterval  time.Duration
	MaxPollErrors uint64
}

var errNotYet = errors.New("not yet")

// Tracker is single use: one Track or Resume per instance.
type Tracker struct {
	backend Backend
	cfg     Config
	reason  ReasonFunc
	log     logging.Logger

	mu        sync.Mutex
	used      bool
	state     State
	observers []func(State)
}

func NewTracker(backend Backend, cfg Config, reason ReasonFunc, logger logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Tracker{backend: backend, cfg: cfg, reason: reason, log: logger.With("component", "txtrack")}
}

// OnChange registers fn for every subsequent transition. Callbacks run on
// the tracking goroutine, in transition order.
func (t *Tracker) OnChange(fn func(State)) {
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) acquire() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.used {
		return bcommon.ErrTrackerInUse
	}
	t.used = true
	return nil
}

func (t *Tracker) set(s State) {
	t.mu.Lock()
	t.state = s
	observers := make([]func(State), len(t.observers))
	copy(observers, t.observers)
	t.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

func (t *Tracker) fail(hash common.Hash, receipt *types.Receipt, err error) (State, error) {
	s := State{Status: Failed, TxHash: hash, Receipt: receipt, Err: err}
	t.set(s)
	return s, err
}

// Track submits through submit and follows the transaction to a terminal
// state. A submit error (including user rejection) fails the tracker without
// ever reaching Pending.
func (t *Tracker) Track(ctx context.Context, submit SubmitFunc) (State, error) {
	if err := t.acquire(); err != nil {
		return t.State(), err
	}

	t.set(State{Status: Submitting})
	hash, err := submit(ctx)
	if err != nil {
		t.log.Info(ctx, "submission failed", "error", err)
		return t.fail(common.Hash{}, nil, err)
	}
	return t.follow(ctx, hash)
}

// Resume follows a transaction that was broadcast earlier, e.g. by a
// previous run.
func (t *Tracker) Resume(ctx context.Context, hash common.Hash) (State, error) {
	if err := t.acquire(); err != nil {
		return t.State(), err
	}
	return t.follow(ctx, hash)
}

func (t *Tracker) follow(ctx context.Context, hash common.Hash) (State, error) {
	t.set(State{Status: Pending, TxHash: hash})
	t.log.Info(ctx, "transaction pending", "tx", hash.Hex())

	var receipt *types.Receipt
	err := t.poll(ctx, "receipt", func(ctx context.Context) (bool, error) {
		r, err := t.backend.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		receipt = r
		return true, nil
	})
	if err != nil {
		return t.fail(hash, nil, err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason := ""
		if t.reason != nil {
			reason = t.reason(ctx, receipt)
		}
		t.log.Warn(ctx, "transaction reverted", "tx", hash.Hex(), "reason", reason)
		return t.fail(hash, receipt, &bcommon.RevertError{Reason: reason})
	}

	t.set(State{Status: Confirming, TxHash: hash, Receipt: receipt})

	included := receipt.BlockNumber.Uint64()
	err = t.poll(ctx, "block number", func(ctx context.Context) (bool, error) {
		head, err := t.backend.BlockNumber(ctx)
		if err != nil {
			return false, err
		}
		return head >= included && head-included+1 >= t.cfg.Depth, nil
	})
	if err != nil {
		return t.fail(hash, receipt, err)
	}

	s := State{Status: Confirmed, TxHash: hash, Receipt: receipt}
	t.set(s)
	t.log.Info(ctx, "transaction confirmed", "tx", hash.Hex(), "block", included)
	return s, nil
}

// poll calls check every PollInterval until it reports done. More than
// MaxPollErrors consecutive errors end polling with common.ErrTransport.
func (t *Tracker) poll(ctx context.Context, what string, check func(context.Context) (bool, error)) error {
	var failures uint64
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if failures > t.cfg.MaxPollErrors {
			return 0, true
		}
		return t.cfg.PollInterval, false
	})

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		done, err := check(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			failures++
			t.log.Warn(ctx, "poll failed", "what", what, "attempt", failures, "error", err)
			return retry.RetryableError(fmt.Errorf("%w: %s: %w", bcommon.ErrTransport, what, err))
		}
		failures = 0
		if done {
			return nil
		}
		return retry.RetryableError(errNotYet)
	})
}
