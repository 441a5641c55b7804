package store

// guard.go keeps one action of each kind in flight at a time.
//
// Double-submitting the same action (tapping "import" twice, deleting the
// same course from two tabs) is the only overlap the containers guard
// against. Different keys never block each other, and nothing waits: a
// second attempt fails straight away with core.ErrActionInFlight.

import (
	"sync"

	"github.com/JonMunkholm/unitrack/internal/core"
)

// Guard tracks in-flight actions by key.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// TryAcquire marks key as in flight. It returns false if it already is.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

// Release clears key. Must be called exactly once per successful TryAcquire.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	delete(g.active, key)
	g.mu.Unlock()
}

// Busy reports whether key is in flight, for disabling the triggering control.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[key]
	return busy
}

// ActiveCount returns the number of actions in flight.
func (g *Guard) ActiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// Run executes fn while holding key.
func (g *Guard) Run(key string, fn func() error) error {
	if !g.TryAcquire(key) {
		return core.ErrActionInFlight
	}
	defer g.Release(key)
	return fn()
}
