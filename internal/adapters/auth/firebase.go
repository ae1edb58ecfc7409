package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"aurora/internal/domain/account"
	"aurora/internal/domain/result"
)

// FirebaseProvider signs operators in with Firebase email/password accounts
// and hands out Firebase session cookies as tokens.
type FirebaseProvider struct {
	client  *firebaseauth.Client
	toolkit *identitytoolkit.Service
	hub     *Hub
	ttl     time.Duration
}

var _ Provider = (*FirebaseProvider)(nil)

// NewFirebaseProvider wires the admin SDK auth client and the identity
// toolkit REST client used for the password exchange.
// PRE: apiKey is the project's web API key
func NewFirebaseProvider(ctx context.Context, app *firebase.App, apiKey string) (*FirebaseProvider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase web API key is required for password sign-in")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return &FirebaseProvider{client: client, toolkit: toolkit, hub: NewHub(), ttl: SessionTTL}, nil
}

// SignIn exchanges the password for an ID token, then mints a session cookie.
// POST: Err(ErrInvalidCredentials) when the provider rejects the credentials
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) result.Result[Session] {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return result.Err[Session](ErrMissingCredentials)
	}

	resp, err := p.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		if isCredentialError(err) {
			slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "rejected")
			return result.Err[Session](ErrInvalidCredentials)
		}
		slog.Error("auth_provider_failed", "op", "verify_password", "error", err)
		return result.Err[Session](fmt.Errorf("verify password: %w", err))
	}

	cookie, err := p.client.SessionCookie(ctx, resp.IdToken, p.ttl)
	if err != nil {
		slog.Error("auth_provider_failed", "op", "session_cookie", "error", err)
		return result.Err[Session](fmt.Errorf("mint session cookie: %w", err))
	}

	id := account.Identity{UID: resp.LocalId, Email: resp.Email}
	p.hub.Publish(cookie, id, true)
	return result.Ok(Session{Token: cookie, Identity: id, ExpiresAt: time.Now().Add(p.ttl)})
}

// SignOut revokes the operator's refresh tokens, which invalidates every
// session cookie minted for them.
func (p *FirebaseProvider) SignOut(ctx context.Context, token string) result.Result[result.Unit] {
	defer p.hub.Publish(token, account.Identity{}, false)

	tok, err := p.client.VerifySessionCookie(ctx, token)
	if err != nil {
		// Already invalid; nothing left to revoke.
		return result.Done()
	}
	if err := p.client.RevokeRefreshTokens(ctx, tok.UID); err != nil {
		slog.Error("auth_provider_failed", "op", "revoke", "uid", tok.UID, "error", err)
		return result.Err[result.Unit](fmt.Errorf("revoke sessions: %w", err))
	}
	slog.Info("auth_event", "event", "logout", "uid", tok.UID)
	return result.Done()
}

// Subscribe verifies token against the provider in the background and
// delivers the outcome, then every later change published for token.
func (p *FirebaseProvider) Subscribe(ctx context.Context, token string, fn Observer) func() {
	sub, cancel := p.hub.Subscribe(token, fn)
	if token == "" {
		sub.deliver(account.Identity{}, false)
		return cancel
	}
	go func() {
		tok, err := p.client.VerifySessionCookieAndCheckRevoked(ctx, token)
		if err != nil {
			if ctx.Err() == nil {
				slog.Debug("auth_session_rejected", "error", err)
			}
			sub.deliver(account.Identity{}, false)
			return
		}
		sub.deliver(identityFromClaims(tok.UID, tok.Claims), true)
	}()
	return cancel
}

func identityFromClaims(uid string, claims map[string]interface{}) account.Identity {
	email, _ := claims["email"].(string)
	return account.Identity{UID: uid, Email: email}
}

// isCredentialError reports whether the password exchange failed because of
// the credentials themselves rather than the provider.
func isCredentialError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code != 400 {
		return false
	}
	switch {
	case strings.Contains(apiErr.Message, "INVALID_PASSWORD"),
		strings.Contains(apiErr.Message, "EMAIL_NOT_FOUND"),
		strings.Contains(apiErr.Message, "INVALID_LOGIN_CREDENTIALS"),
		strings.Contains(apiErr.Message, "USER_DISABLED"),
		strings.Contains(apiErr.Message, "INVALID_EMAIL"),
		strings.Contains(apiErr.Message, "TOO_MANY_ATTEMPTS"):
		return true
	}
	return false
}
