package pricingview

import (
	"sync"
	"time"

	"aurora/internal/domain/service"
)

// DefaultIdleTTL is how long an untouched view is kept. It matches the
// session lifetime, after which the token can no longer reach the view.
const DefaultIdleTTL = 24 * time.Hour

type entry struct {
	view     *View
	lastSeen time.Time
}

// Registry keeps one View per admin session so edit state survives the
// redirect after each form post. Views idle for longer than the TTL are
// swept on access.
type Registry struct {
	store TierStore
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	views     map[string]*entry
	lastSweep time.Time
}

// NewRegistry creates an empty registry over store.
func NewRegistry(store TierStore) *Registry {
	return &Registry{
		store: store,
		ttl:   DefaultIdleTTL,
		now:   time.Now,
		views: make(map[string]*entry),
	}
}

// For returns the session's view, creating it on the default tab.
func (r *Registry) For(session string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastSweep) > r.ttl/24 {
		r.sweepLocked(now)
	}
	e, ok := r.views[session]
	if !ok {
		e = &entry{view: New(r.store, service.Default)}
		r.views[session] = e
	}
	e.lastSeen = now
	return e.view
}

// Drop forgets the session's view, e.g. on sign-out or once the session
// is no longer valid.
func (r *Registry) Drop(session string) {
	r.mu.Lock()
	delete(r.views, session)
	r.mu.Unlock()
}

// Sweep drops every view idle for longer than the TTL.
func (r *Registry) Sweep() {
	r.mu.Lock()
	r.sweepLocked(r.now())
	r.mu.Unlock()
}

func (r *Registry) sweepLocked(now time.Time) {
	r.lastSweep = now
	for session, e := range r.views {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.views, session)
		}
	}
}

// Len reports how many sessions have a view.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
