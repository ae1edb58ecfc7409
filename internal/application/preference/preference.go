// Package preference carries the visitor's active service line through a
// request. The value is injected at the root of each request and read by
// whatever renders copy that depends on it.
package preference

import (
	"context"
	"sync"

	"aurora/internal/domain/service"
)

// Provider exposes the active service line.
type Provider interface {
	Current() service.Type
	Set(st service.Type) error
	Toggle() service.Type
	// Subscribe registers fn for every change. fn runs synchronously on the
	// goroutine that made the change.
	Subscribe(fn func(service.Type)) (unsubscribe func())
}

// Store is the in-memory Provider.
type Store struct {
	mu      sync.Mutex
	current service.Type
	nextID  int
	subs    map[int]func(service.Type)
}

var _ Provider = (*Store)(nil)

// NewStore starts at initial, or at service.Default when initial is not a
// known service line.
func NewStore(initial service.Type) *Store {
	if !initial.Valid() {
		initial = service.Default
	}
	return &Store{current: initial, subs: make(map[int]func(service.Type))}
}

// Current returns the active service line.
func (s *Store) Current() service.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set changes the active service line and notifies subscribers if it moved.
// POST: returns service.ErrInvalidServiceType and changes nothing for unknown values
func (s *Store) Set(st service.Type) error {
	if !st.Valid() {
		return service.ErrInvalidServiceType
	}
	s.mu.Lock()
	if s.current == st {
		s.mu.Unlock()
		return nil
	}
	s.current = st
	subs := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
	return nil
}

// Toggle flips to the other service line and returns it.
func (s *Store) Toggle() service.Type {
	s.mu.Lock()
	next := s.current.Toggle()
	s.mu.Unlock()
	_ = s.Set(next)
	return next
}

// Subscribe registers fn for changes.
func (s *Store) Subscribe(fn func(service.Type)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() []func(service.Type) {
	out := make([]func(service.Type), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

type contextKey struct{}

// WithProvider returns ctx carrying p.
func WithProvider(ctx context.Context, p Provider) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the request's provider. Without one it returns a
// detached store on the default service line, so callers never get nil.
func FromContext(ctx context.Context) Provider {
	if p, ok := ctx.Value(contextKey{}).(Provider); ok {
		return p
	}
	return NewStore(service.Default)
}

// Current is shorthand for FromContext(ctx).Current().
func Current(ctx context.Context) service.Type {
	return FromContext(ctx).Current()
}
