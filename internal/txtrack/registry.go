package txtrack

import (
	"fmt"
	"sync"

	bcommon "github.com/dmitrijs2005/blindauction/internal/common"
)

// Registry prevents two submissions for the same operation key (a draft, an
// auction's bid) from running at once.
type Registry struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{held: make(map[string]struct{})}
}

// Acquire claims key. The returned release is safe to call more than once.
func (r *Registry) Acquire(key string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.held[key]; ok {
		return nil, fmt.Errorf("%w: %s", bcommon.ErrOperationInFlight, key)
	}
	r.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.held, key)
			r.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently claimed.
func (r *Registry) Held(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.held[key]
	return ok
}
