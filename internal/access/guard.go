package access

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Input is a snapshot of what the guard needs to decide.
type Input struct {
	Connected     *common.Address
	Owner         *common.Address
	OwnerResolved bool
}

// Guard protects one area. Navigate is called at most once, when the first
// Redirect is observed. Unauthorized suppresses navigation entirely so the
// caller can render its own message.
type Guard struct {
	Required     Role
	Navigate     func()
	Unauthorized bool

	mu        sync.Mutex
	navigated bool
}

func (g *Guard) Evaluate(in Input) Decision {
	d := Decide(in.Connected, in.Owner, in.OwnerResolved, g.Required)
	if d != Redirect || g.Unauthorized {
		return d
	}

	g.mu.Lock()
	fire := !g.navigated
	g.navigated = true
	g.mu.Unlock()

	if fire && g.Navigate != nil {
		g.Navigate()
	}
	return d
}

// OwnerReader reads the contract owner; *chain.Contract satisfies it.
type OwnerReader interface {
	Owner(ctx context.Context) (common.Address, error)
}

// OwnerLookup resolves the owner once and caches it. A failed read leaves the
// lookup unresolved so the next Resolve retries.
type OwnerLookup struct {
	reader OwnerReader

	mu       sync.Mutex
	owner    common.Address
	resolved bool
}

func NewOwnerLookup(reader OwnerReader) *OwnerLookup {
	return &OwnerLookup{reader: reader}
}

func (l *OwnerLookup) Resolve(ctx context.Context) (common.Address, error) {
	l.mu.Lock()
	if l.resolved {
		defer l.mu.Unlock()
		return l.owner, nil
	}
	l.mu.Unlock()

	owner, err := l.reader.Owner(ctx)
	if err != nil {
		return common.Address{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.owner, l.resolved = owner, true
	return owner, nil
}

// Input builds a guard input for connected from whatever is known so far.
func (l *OwnerLookup) Input(connected *common.Address) Input {
	l.mu.Lock()
	defer l.mu.Unlock()
	in := Input{Connected: connected, OwnerResolved: l.resolved}
	if l.resolved {
		owner := l.owner
		in.Owner = &owner
	}
	return in
}
