package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

// Status is the lifecycle state of a Session.
type Status int

const (
	Uninitialized Status = iota
	Initializing
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Session owns the single engine instance of the process. The engine is
// created on the first Start (or Engine) call and never re-created: Failed
// is terminal.
type Session struct {
	factory Factory
	log     logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	status    Status
	eng       Engine
	err       error
	done      chan struct{}
	observers []func(Status)
}

func NewSession(factory Factory, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		factory: factory,
		log:     logger.With("component", "engine_session"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// OnChange registers fn to be called after every status transition. fn runs
// on the goroutine that caused the transition and must not block.
func (s *Session) OnChange(fn func(Status)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the failure reason once the session is Failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start begins engine creation. Only the first call has an effect.
func (s *Session) Start() {
	s.mu.Lock()
	if s.status != Uninitialized {
		s.mu.Unlock()
		return
	}
	s.status = Initializing
	observers := s.snapshot()
	s.mu.Unlock()

	s.log.Info(s.ctx, "engine initialization started")
	notify(observers, Initializing)

	go s.run()
}

func (s *Session) run() {
	started := time.Now()
	eng, err := s.factory(s.ctx)
	if err == nil && eng == nil {
		err = fmt.Errorf("factory returned no engine")
	}

	s.mu.Lock()
	if err != nil {
		s.status = Failed
		s.err = err
	} else {
		s.status = Ready
		s.eng = eng
	}
	status := s.status
	observers := s.snapshot()
	close(s.done)
	s.mu.Unlock()

	if err != nil {
		s.log.Error(s.ctx, "engine initialization failed", "error", err)
	} else {
		s.log.Info(s.ctx, "engine ready", "elapsed", time.Since(started))
	}
	notify(observers, status)
}

// Engine returns the engine if Ready. It never blocks: while the engine is
// being created it returns common.ErrEngineNotReady (starting creation if
// needed), and after a failure common.ErrEngineFailed wrapping the reason.
func (s *Session) Engine() (Engine, error) {
	s.mu.Lock()
	status, eng, err := s.status, s.eng, s.err
	s.mu.Unlock()

	switch status {
	case Ready:
		return eng, nil
	case Failed:
		return nil, fmt.Errorf("%w: %w", common.ErrEngineFailed, err)
	case Uninitialized:
		s.Start()
	}
	return nil, common.ErrEngineNotReady
}

// Wait starts the session if needed and blocks until it is Ready or Failed,
// or ctx is done.
func (s *Session) Wait(ctx context.Context) (Engine, error) {
	s.Start()
	select {
	case <-s.done:
		return s.Engine()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close cancels a pending initialization and closes the engine if it holds
// resources.
func (s *Session) Close() error {
	s.cancel()
	s.mu.Lock()
	eng := s.eng
	s.mu.Unlock()
	if c, ok := eng.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) snapshot() []func(Status) {
	out := make([]func(Status), len(s.observers))
	copy(out, s.observers)
	return out
}

func notify(observers []func(Status), st Status) {
	for _, fn := range observers {
		fn(st)
	}
}

// WithTimeout bounds a single factory call.
func WithTimeout(f Factory, d time.Duration) Factory {
	if d <= 0 {
		return f
	}
	return func(ctx context.Context) (Engine, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return f(ctx)
	}
}
