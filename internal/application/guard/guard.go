// Package guard gates admin routes on the state reported by the session
// authority. A Guard lives for one mount (one admin request) and holds no
// state beyond it.
package guard

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"aurora/internal/adapters/auth"
	"aurora/internal/domain/account"
)

// State is where a mounted guard stands.
type State string

const (
	Checking        State = "checking"
	Authenticated   State = "authenticated"
	Unauthenticated State = "unauthenticated"
)

// LoginPath is the one admin route that renders without a session.
const LoginPath = "/admin/login"

// DefaultTimeout bounds how long a guard waits for the first callback.
const DefaultTimeout = 5 * time.Second

// Authority pushes sign-in state for a session token.
type Authority interface {
	Subscribe(ctx context.Context, token string, fn auth.Observer) (unsubscribe func())
}

// Decision is what the route should do for a given state.
type Decision int

const (
	ShowLoading Decision = iota
	Allow
	RedirectToLogin
)

// Decide maps a guard state and request path to a routing decision.
// INVARIANT: only Authenticated, or the login exemption, yields Allow
func Decide(st State, path string) Decision {
	if IsExempt(path) {
		return Allow
	}
	switch st {
	case Authenticated:
		return Allow
	case Unauthenticated:
		return RedirectToLogin
	default:
		return ShowLoading
	}
}

// IsExempt reports whether path renders regardless of session state.
func IsExempt(path string) bool {
	return strings.TrimSuffix(path, "/") == LoginPath
}

// Guard is a three-state machine driven by authority callbacks and a timeout.
type Guard struct {
	mu        sync.Mutex
	state     State
	identity  account.Identity
	resolved  chan struct{}
	timer     *time.Timer
	unsub     func()
	timedOut  bool
	unmounted bool
}

// Mount subscribes to the authority for token and starts the check timer.
// POST: State() is Checking until the first callback or the timeout; an empty
// token resolves Unauthenticated immediately without subscribing
func Mount(ctx context.Context, authority Authority, token string, timeout time.Duration) *Guard {
	g := &Guard{state: Checking, resolved: make(chan struct{})}
	if token == "" {
		g.state = Unauthenticated
		close(g.resolved)
		return g
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	g.mu.Lock()
	g.timer = time.AfterFunc(timeout, g.expire)
	g.mu.Unlock()

	unsub := authority.Subscribe(ctx, token, g.observe)

	g.mu.Lock()
	if g.timedOut || g.unmounted {
		g.mu.Unlock()
		unsub()
		return g
	}
	g.unsub = unsub
	g.mu.Unlock()
	return g
}

func (g *Guard) observe(id account.Identity, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut || g.unmounted {
		return
	}
	if g.timer != nil {
		g.timer.Stop()
	}
	prev := g.state
	if ok {
		g.state = Authenticated
		g.identity = id
	} else {
		g.state = Unauthenticated
		g.identity = account.Identity{}
	}
	if prev == Checking {
		close(g.resolved)
	} else if prev != g.state {
		slog.Info("auth_event", "event", "session_changed", "from", string(prev), "to", string(g.state))
	}
}

// expire moves a still-checking guard to Unauthenticated. Callbacks that
// arrive afterwards are ignored for this mount.
func (g *Guard) expire() {
	g.mu.Lock()
	if g.state != Checking || g.unmounted {
		g.mu.Unlock()
		return
	}
	g.state = Unauthenticated
	g.timedOut = true
	close(g.resolved)
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()

	slog.Warn("auth_event", "event", "session_check_timeout")
	if unsub != nil {
		unsub()
	}
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Identity returns the signed-in identity, or the zero value when not authenticated.
func (g *Guard) Identity() account.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity
}

// Resolved is closed once the guard leaves Checking.
func (g *Guard) Resolved() <-chan struct{} {
	return g.resolved
}

// Await blocks until the guard leaves Checking or ctx ends, then returns the
// state at that moment.
func (g *Guard) Await(ctx context.Context) (State, account.Identity) {
	select {
	case <-g.resolved:
	case <-ctx.Done():
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.identity
}

// Unmount drops the subscription and the timer. Safe to call more than once.
func (g *Guard) Unmount() {
	g.mu.Lock()
	if g.unmounted {
		g.mu.Unlock()
		return
	}
	g.unmounted = true
	if g.timer != nil {
		g.timer.Stop()
	}
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
