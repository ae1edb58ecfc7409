package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"aurora/internal/domain/account"
)

type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]account.Account
	saves    int
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[strings.ToLower(email)]
	if !ok {
		return account.Account{}, errors.New("not found")
	}
	return a, nil
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.accounts[strings.ToLower(a.Email)] = a
	return nil
}

const testPassword = "correct horse battery"

func newLocal(t *testing.T) (*LocalProvider, *mockAccountStore) {
	t.Helper()
	a := account.Account{ID: "acct-1", Email: "n@aurorabusiness.ca"}
	if err := a.SetPassword(testPassword); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	store := &mockAccountStore{accounts: map[string]account.Account{"n@aurorabusiness.ca": a}}
	return NewLocalProvider(store), store
}

// recorder collects observer calls for assertions.
type recorder struct {
	ch chan state
}

func newRecorder() *recorder { return &recorder{ch: make(chan state, 16)} }

func (r *recorder) observe(id account.Identity, ok bool) { r.ch <- state{id: id, ok: ok} }

func (r *recorder) next(t *testing.T) state {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("observer was not called")
		return state{}
	}
}

func (r *recorder) quiet(t *testing.T) {
	t.Helper()
	select {
	case s := <-r.ch:
		t.Fatalf("unexpected observer call: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalProvider_SignInSuccess(t *testing.T) {
	p, _ := newLocal(t)
	res := p.SignIn(context.Background(), " n@aurorabusiness.ca ", testPassword)
	if !res.IsOk() {
		t.Fatalf("SignIn: %v", res.Error())
	}
	sess := res.Data()
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}
	if sess.Identity.UID != "acct-1" || sess.Identity.Email != "n@aurorabusiness.ca" {
		t.Errorf("Identity = %+v", sess.Identity)
	}
}

func TestLocalProvider_SignInFailuresAreIndistinguishable(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()

	unknown := p.SignIn(ctx, "ghost@example.com", testPassword)
	wrong := p.SignIn(ctx, "n@aurorabusiness.ca", "not the password")
	for name, err := range map[string]error{"unknown": unknown.Error(), "wrong": wrong.Error()} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: err = %v, want ErrInvalidCredentials", name, err)
		}
	}
	if res := p.SignIn(ctx, "", ""); !errors.Is(res.Error(), ErrMissingCredentials) {
		t.Errorf("empty: err = %v", res.Error())
	}
}

func TestLocalProvider_LocksAfterRepeatedFailures(t *testing.T) {
	p, store := newLocal(t)
	ctx := context.Background()
	for i := 0; i < account.MaxFailedLogins; i++ {
		p.SignIn(ctx, "n@aurorabusiness.ca", "wrong password!")
	}
	if res := p.SignIn(ctx, "n@aurorabusiness.ca", testPassword); res.IsOk() {
		t.Fatal("locked account signed in")
	}
	a, _ := store.GetByEmail(ctx, "n@aurorabusiness.ca")
	if a.LockedUntil.IsZero() {
		t.Error("LockedUntil not set")
	}

	p.now = func() time.Time { return time.Now().Add(account.LockoutDuration + time.Minute) }
	if res := p.SignIn(ctx, "n@aurorabusiness.ca", testPassword); !res.IsOk() {
		t.Fatalf("sign in after lockout expired: %v", res.Error())
	}
	a, _ = store.GetByEmail(ctx, "n@aurorabusiness.ca")
	if a.FailedLogins != 0 {
		t.Errorf("FailedLogins = %d after success, want 0", a.FailedLogins)
	}
}

func TestLocalProvider_SubscribeDeliversCurrentState(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()
	sess := p.SignIn(ctx, "n@aurorabusiness.ca", testPassword).Data()

	rec := newRecorder()
	unsub := p.Subscribe(ctx, sess.Token, rec.observe)
	defer unsub()
	if s := rec.next(t); !s.ok || s.id.Email != "n@aurorabusiness.ca" {
		t.Errorf("initial state = %+v, want signed in", s)
	}

	anon := newRecorder()
	defer p.Subscribe(ctx, "no-such-token", anon.observe)()
	if s := anon.next(t); s.ok {
		t.Error("unknown token reported as signed in")
	}
}

func TestLocalProvider_SignOutNotifiesObservers(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()
	sess := p.SignIn(ctx, "n@aurorabusiness.ca", testPassword).Data()

	rec := newRecorder()
	unsub := p.Subscribe(ctx, sess.Token, rec.observe)
	rec.next(t)

	if res := p.SignOut(ctx, sess.Token); !res.IsOk() {
		t.Fatalf("SignOut: %v", res.Error())
	}
	if s := rec.next(t); s.ok {
		t.Error("observer not told about sign-out")
	}

	unsub()
	p.SignOut(ctx, sess.Token)
	rec.quiet(t)
}

func TestLocalProvider_ExpiredSession(t *testing.T) {
	p, _ := newLocal(t)
	ctx := context.Background()
	sess := p.SignIn(ctx, "n@aurorabusiness.ca", testPassword).Data()

	p.now = func() time.Time { return time.Now().Add(SessionTTL + time.Second) }
	rec := newRecorder()
	defer p.Subscribe(ctx, sess.Token, rec.observe)()
	if s := rec.next(t); s.ok {
		t.Error("expired session reported as signed in")
	}
}
