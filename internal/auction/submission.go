package auction

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Kind names the contract operation a submission performs.
type Kind string

const (
	KindCreateAuction Kind = "create_auction"
	KindBid           Kind = "bid"
	KindDecrypt       Kind = "decrypt_winning_address"
	KindClaimPrize    Kind = "claim_prize"
	KindWithdraw      Kind = "withdraw"
	KindWithdrawFees  Kind = "withdraw_fees"
)

type Stage int

const (
	Encrypting Stage = iota
	Submitting
	Pending
	Confirming
	Confirmed
	Failed
)

func (s Stage) String() string {
	switch s {
	case Encrypting:
		return "encrypting"
	case Submitting:
		return "submitting"
	case Pending:
		return "pending"
	case Confirming:
		return "confirming"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) Terminal() bool {
	return s == Confirmed || s == Failed
}

// Progress is a snapshot of a submission. TxHash is set once the wallet has
// broadcast the transaction; Err only when Failed.
type Progress struct {
	Stage  Stage
	TxHash common.Hash
	Err    error
}

// Submission is one running operation. It is created by the Orchestrator
// and advances on a background goroutine.
type Submission struct {
	ID   uuid.UUID
	Kind Kind
	Key  string

	mu        sync.Mutex
	progress  Progress
	auctionID *big.Int
	observers []func(Progress)
	completes []func()
	completed bool
	detached  bool
	atWallet  bool
	abort     context.CancelFunc
	done      chan struct{}
}

func newSubmission(kind Kind, key string, first Stage, abort context.CancelFunc) *Submission {
	return &Submission{
		ID:       uuid.New(),
		Kind:     kind,
		Key:      key,
		progress: Progress{Stage: first},
		abort:    abort,
		done:     make(chan struct{}),
	}
}

func (s *Submission) State() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Done is closed once the submission reaches Confirmed or Failed.
func (s *Submission) Done() <-chan struct{} { return s.done }

// Err returns the error that failed the submission, nil otherwise.
func (s *Submission) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Err
}

// AuctionID is the id of the auction a confirmed create_auction produced, or
// the target auction for the other kinds. It may be nil.
func (s *Submission) AuctionID() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auctionID == nil {
		return nil
	}
	return new(big.Int).Set(s.auctionID)
}

// OnChange registers fn for every later transition. Callbacks run on the
// submission's goroutine, never while the submission is locked.
func (s *Submission) OnChange(fn func(Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.detached {
		s.observers = append(s.observers, fn)
	}
}

// OnComplete registers fn to run once when the submission is Confirmed. If
// it already is, fn runs immediately.
func (s *Submission) OnComplete(fn func()) {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return
	}
	if !s.completed {
		s.completes = append(s.completes, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Detach drops every observer and aborts the work still ahead of the wallet.
// A transaction that was already handed to the wallet keeps being followed
// to a terminal state.
func (s *Submission) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
	s.observers = nil
	s.completes = nil
	if !s.atWallet && s.abort != nil {
		s.abort()
	}
}

// enterWallet marks the point of no return. It reports false when the
// submission was detached before reaching it.
func (s *Submission) enterWallet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return false
	}
	s.atWallet = true
	return true
}

func (s *Submission) setAuctionID(id *big.Int) {
	s.mu.Lock()
	s.auctionID = id
	s.mu.Unlock()
}

func (s *Submission) set(p Progress) {
	s.mu.Lock()
	if s.progress.Stage.Terminal() {
		s.mu.Unlock()
		return
	}
	if p.TxHash == (common.Hash{}) {
		p.TxHash = s.progress.TxHash
	}
	if p.Stage == s.progress.Stage && p.TxHash == s.progress.TxHash && p.Stage != Failed {
		s.mu.Unlock()
		return
	}
	s.progress = p

	var (
		observers []func(Progress)
		completes []func()
	)
	if !s.detached {
		observers = make([]func(Progress), len(s.observers))
		copy(observers, s.observers)
		if p.Stage == Confirmed && !s.completed {
			completes = s.completes
			s.completes = nil
		}
	}
	if p.Stage == Confirmed {
		s.completed = true
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(p)
	}
	for _, fn := range completes {
		fn()
	}
}
