package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	bcommon "github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

// Provider answers "which account is connected" from the stored token.
type Provider struct {
	store  FileStore
	secret []byte
	ttl    time.Duration
	log    logging.Logger

	mu sync.Mutex
}

func NewProvider(store FileStore, secret []byte, ttl time.Duration, logger logging.Logger) *Provider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Provider{store: store, secret: secret, ttl: ttl, log: logger}
}

// Connected returns the connected account, if any. An expired or tampered
// token counts as disconnected and is removed.
func (p *Provider) Connected() (common.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.store.Load()
	if err != nil {
		return common.Address{}, false
	}
	addr, err := Parse(tok, p.secret)
	if err != nil {
		p.log.Warn(context.Background(), "dropping stored session", "error", err)
		_ = p.store.Clear()
		return common.Address{}, false
	}
	return addr, true
}

// Connect records address as the connected account.
func (p *Provider) Connect(ctx context.Context, address common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := Issue(address, p.secret, p.ttl)
	if err != nil {
		return err
	}
	if err := p.store.Save(tok); err != nil {
		return err
	}
	p.log.Info(ctx, "account connected", "account", address.Hex())
	return nil
}

func (p *Provider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Clear(); err != nil && !errors.Is(err, bcommon.ErrNotFound) {
		return err
	}
	p.log.Info(ctx, "account disconnected")
	return nil
}
