package preference

import (
	"context"
	"errors"
	"testing"

	"aurora/internal/domain/service"
)

func TestStore_SetAndToggle(t *testing.T) {
	s := NewStore("")
	if s.Current() != service.Taxation {
		t.Fatalf("Current = %s, want taxation default", s.Current())
	}
	if err := s.Set(service.WebDesign); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Current() != service.WebDesign {
		t.Errorf("Current = %s", s.Current())
	}
	if got := s.Toggle(); got != service.Taxation || s.Current() != service.Taxation {
		t.Errorf("Toggle = %s, Current = %s", got, s.Current())
	}
	if err := s.Set("both"); !errors.Is(err, service.ErrInvalidServiceType) {
		t.Errorf("Set(both) = %v", err)
	}
	if s.Current() != service.Taxation {
		t.Error("invalid Set changed the value")
	}
}

func TestStore_SubscribeSeesChangesOnly(t *testing.T) {
	s := NewStore(service.Taxation)
	var seen []service.Type
	unsub := s.Subscribe(func(st service.Type) { seen = append(seen, st) })

	s.Set(service.Taxation)
	s.Set(service.WebDesign)
	s.Toggle()
	unsub()
	s.Toggle()

	if len(seen) != 2 || seen[0] != service.WebDesign || seen[1] != service.Taxation {
		t.Errorf("seen = %v, want [web-design taxation]", seen)
	}
}

func TestFromContext(t *testing.T) {
	if got := Current(context.Background()); got != service.Default {
		t.Errorf("Current without provider = %s", got)
	}
	s := NewStore(service.WebDesign)
	ctx := WithProvider(context.Background(), s)
	if FromContext(ctx) != Provider(s) {
		t.Error("FromContext did not return the injected provider")
	}
	if Current(ctx) != service.WebDesign {
		t.Errorf("Current = %s", Current(ctx))
	}
}
