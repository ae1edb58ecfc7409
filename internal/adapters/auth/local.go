package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"aurora/internal/domain/account"
	"aurora/internal/domain/result"
)

// AccountStore is the slice of the account store LocalProvider needs.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

type localSession struct {
	identity  account.Identity
	expiresAt time.Time
}

// LocalProvider authenticates against bcrypt accounts in SQLite and keeps
// sessions in memory. It is the session authority when no hosted identity
// provider is configured.
type LocalProvider struct {
	accounts AccountStore
	hub      *Hub
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]localSession
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider over accounts.
func NewLocalProvider(accounts AccountStore) *LocalProvider {
	return &LocalProvider{
		accounts: accounts,
		hub:      NewHub(),
		ttl:      SessionTTL,
		now:      time.Now,
		sessions: make(map[string]localSession),
	}
}

// SignIn checks the password and opens a session.
// POST: Ok(session) on success; Err(ErrInvalidCredentials) for any credential problem
// INVARIANT: a locked account is rejected without checking the password
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) result.Result[Session] {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return result.Err[Session](ErrMissingCredentials)
	}

	acct, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return result.Err[Session](ErrInvalidCredentials)
	}

	now := p.now()
	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return result.Err[Session](ErrInvalidCredentials)
	}

	if err := acct.CheckPassword(password); err != nil {
		acct.RecordFailedLogin(now)
		if err := p.accounts.Save(ctx, acct); err != nil {
			slog.Error("auth_save_failed", "email", email, "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return result.Err[Session](ErrInvalidCredentials)
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if err := p.accounts.Save(ctx, acct); err != nil {
			slog.Error("auth_save_failed", "email", email, "error", err)
		}
	}

	token, err := generateToken()
	if err != nil {
		return result.Err[Session](fmt.Errorf("generate session token: %w", err))
	}
	sess := Session{Token: token, Identity: acct.Identity(), ExpiresAt: now.Add(p.ttl)}

	p.mu.Lock()
	p.sessions[token] = localSession{identity: sess.Identity, expiresAt: sess.ExpiresAt}
	p.hub.Publish(token, sess.Identity, true)
	p.mu.Unlock()

	return result.Ok(sess)
}

// SignOut ends the session and tells every observer of token.
// POST: token no longer resolves; signing out an unknown token is not an error
func (p *LocalProvider) SignOut(_ context.Context, token string) result.Result[result.Unit] {
	p.mu.Lock()
	sess, existed := p.sessions[token]
	delete(p.sessions, token)
	p.hub.Publish(token, account.Identity{}, false)
	p.mu.Unlock()

	if existed {
		slog.Info("auth_event", "event", "logout", "email", sess.identity.Email)
	}
	return result.Done()
}

// Subscribe delivers the current state of token to fn, then every change.
func (p *LocalProvider) Subscribe(ctx context.Context, token string, fn Observer) func() {
	sub, cancel := p.hub.Subscribe(token, fn)
	if ctx.Err() != nil {
		cancel()
		return cancel
	}

	// The lookup and the initial delivery happen under p.mu so a concurrent
	// SignOut cannot be overtaken by a stale "signed in" state.
	p.mu.Lock()
	id, ok := p.lookupLocked(token)
	sub.deliver(id, ok)
	p.mu.Unlock()
	return cancel
}

func (p *LocalProvider) lookupLocked(token string) (account.Identity, bool) {
	if token == "" {
		return account.Identity{}, false
	}
	sess, ok := p.sessions[token]
	if !ok {
		return account.Identity{}, false
	}
	if !p.now().Before(sess.expiresAt) {
		delete(p.sessions, token)
		return account.Identity{}, false
	}
	return sess.identity, true
}
