package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"aurora/internal/domain/account"
	"aurora/internal/domain/result"
)

// SessionTTL is how long an admin session stays valid after sign-in.
const SessionTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials covers unknown accounts, wrong passwords and locked
	// accounts alike so callers cannot enumerate operators.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("email and password are required")
)

// Session is what a successful sign-in hands back to the caller.
type Session struct {
	Token     string
	Identity  account.Identity
	ExpiresAt time.Time
}

// Observer receives every sign-in state change for one session token.
// ok is false when the token is unknown, expired or signed out.
type Observer func(id account.Identity, ok bool)

// Provider is the session authority admin routes consult.
type Provider interface {
	SignIn(ctx context.Context, email, password string) result.Result[Session]
	SignOut(ctx context.Context, token string) result.Result[result.Unit]
	// Subscribe registers fn for token. fn is first called with the current
	// state and again on every later change until the returned func runs.
	Subscribe(ctx context.Context, token string, fn Observer) (unsubscribe func())
}

type state struct {
	id account.Identity
	ok bool
}

// Subscription delivers states to one observer in the order they were pushed,
// on a goroutine of its own, so publishers never block on slow observers.
type Subscription struct {
	fn Observer

	mu       sync.Mutex
	queue    []state
	draining bool
	closed   bool
}

func (s *Subscription) deliver(id account.Identity, ok bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, state{id: id, ok: ok})
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	go s.drain()
}

func (s *Subscription) drain() {
	for {
		s.mu.Lock()
		if s.closed || len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.fn(next.id, next.ok)
	}
}

// Hub fans session state changes out to subscribers keyed by token.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers fn for token. Nothing is delivered until the caller
// pushes an initial state or someone publishes.
// POST: the returned cancel func is idempotent
func (h *Hub) Subscribe(token string, fn Observer) (*Subscription, func()) {
	sub := &Subscription{fn: fn}
	h.mu.Lock()
	set, ok := h.subs[token]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[token] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[token], sub)
			if len(h.subs[token]) == 0 {
				delete(h.subs, token)
			}
			h.mu.Unlock()

			sub.mu.Lock()
			sub.closed = true
			sub.queue = nil
			sub.mu.Unlock()
		})
	}
}

// Publish pushes a state change to every subscriber of token.
func (h *Hub) Publish(token string, id account.Identity, ok bool) {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs[token]))
	for sub := range h.subs[token] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()
	for _, sub := range targets {
		sub.deliver(id, ok)
	}
}

// Subscribers reports how many observers are registered for token.
func (h *Hub) Subscribers(token string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[token])
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
