package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"aurora/internal/adapters/auth"
	"aurora/internal/domain/account"
)

// fakeAuthority records subscriptions and lets the test fire callbacks by hand.
type fakeAuthority struct {
	mu           sync.Mutex
	observers    []auth.Observer
	unsubscribed int
	immediate    *bool
}

func (f *fakeAuthority) Subscribe(_ context.Context, _ string, fn auth.Observer) func() {
	f.mu.Lock()
	f.observers = append(f.observers, fn)
	immediate := f.immediate
	f.mu.Unlock()
	if immediate != nil {
		fn(account.Identity{UID: "u1", Email: "n@aurorabusiness.ca"}, *immediate)
	}
	return func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}
}

func (f *fakeAuthority) fire(id account.Identity, ok bool) {
	f.mu.Lock()
	obs := append([]auth.Observer(nil), f.observers...)
	f.mu.Unlock()
	for _, fn := range obs {
		fn(id, ok)
	}
}

func (f *fakeAuthority) unsubCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

func TestGuard_StartsChecking(t *testing.T) {
	a := &fakeAuthority{}
	g := Mount(context.Background(), a, "tok", time.Minute)
	defer g.Unmount()

	if g.State() != Checking {
		t.Fatalf("State = %s, want checking", g.State())
	}
	if Decide(g.State(), "/admin/pricing") != ShowLoading {
		t.Error("checking state must not render protected content")
	}
	if Decide(g.State(), LoginPath) != Allow {
		t.Error("login route must render while checking")
	}
}

func TestGuard_NoSessionRedirects(t *testing.T) {
	a := &fakeAuthority{}
	g := Mount(context.Background(), a, "tok", time.Minute)
	defer g.Unmount()

	a.fire(account.Identity{}, false)
	st, _ := g.Await(context.Background())
	if st != Unauthenticated {
		t.Fatalf("State = %s, want unauthenticated", st)
	}
	if Decide(st, "/admin/dashboard") != RedirectToLogin {
		t.Error("unauthenticated visitor was not redirected")
	}
}

func TestGuard_ActiveSessionRenders(t *testing.T) {
	ok := true
	a := &fakeAuthority{immediate: &ok}
	g := Mount(context.Background(), a, "tok", time.Minute)
	defer g.Unmount()

	st, id := g.Await(context.Background())
	if st != Authenticated || id.Email != "n@aurorabusiness.ca" {
		t.Fatalf("got %s %+v", st, id)
	}
	if Decide(st, "/admin/pricing") != Allow {
		t.Error("authenticated operator was not allowed")
	}
}

func TestGuard_EmptyTokenSkipsSubscription(t *testing.T) {
	a := &fakeAuthority{}
	g := Mount(context.Background(), a, "", time.Minute)
	if g.State() != Unauthenticated {
		t.Errorf("State = %s", g.State())
	}
	if len(a.observers) != 0 {
		t.Error("subscribed without a token")
	}
}

func TestGuard_SignOutCollapsesToUnauthenticated(t *testing.T) {
	a := &fakeAuthority{}
	g := Mount(context.Background(), a, "tok", time.Minute)
	defer g.Unmount()

	a.fire(account.Identity{UID: "u1"}, true)
	if g.State() != Authenticated {
		t.Fatalf("State = %s", g.State())
	}
	a.fire(account.Identity{}, false)
	if g.State() != Unauthenticated {
		t.Errorf("State = %s after sign-out, want unauthenticated", g.State())
	}
	if g.Identity() != (account.Identity{}) {
		t.Error("identity not cleared on sign-out")
	}
}

func TestGuard_TimeoutResolvesUnauthenticated(t *testing.T) {
	a := &fakeAuthority{}
	g := Mount(context.Background(), a, "tok", 20*time.Millisecond)
	defer g.Unmount()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, _ := g.Await(ctx)
	if st != Unauthenticated {
		t.Fatalf("State = %s after timeout, want unauthenticated", st)
	}
	if a.unsubCount() != 1 {
		t.Errorf("unsubscribed %d times after timeout, want 1", a.unsubCount())
	}

	a.fire(account.Identity{UID: "late"}, true)
	if g.State() != Unauthenticated {
		t.Error("late callback revived a timed-out guard")
	}
}

func TestGuard_UnmountIgnoresLaterCallbacks(t *testing.T) {
	a := &fakeAuthority{}
	g := Mount(context.Background(), a, "tok", time.Minute)
	g.Unmount()
	g.Unmount()

	if a.unsubCount() != 1 {
		t.Errorf("unsubscribed %d times, want 1", a.unsubCount())
	}
	a.fire(account.Identity{UID: "u1"}, true)
	if g.State() != Checking {
		t.Errorf("State = %s, want checking after unmount", g.State())
	}
}

func TestGuard_AwaitHonoursContext(t *testing.T) {
	a := &fakeAuthority{}
	g := Mount(context.Background(), a, "tok", time.Minute)
	defer g.Unmount()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if st, _ := g.Await(ctx); st != Checking {
		t.Errorf("Await on cancelled ctx = %s, want checking", st)
	}
}

func TestIsExempt(t *testing.T) {
	for path, want := range map[string]bool{
		"/admin/login":    true,
		"/admin/login/":   true,
		"/admin/pricing":  false,
		"/admin/loginxyz": false,
	} {
		if got := IsExempt(path); got != want {
			t.Errorf("IsExempt(%q) = %v, want %v", path, got, want)
		}
	}
}
