package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aurora/internal/application/guard"
	"aurora/internal/domain/account"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	tokenContextKey    contextKey = "session_token"
)

// SessionCookieName holds the provider-issued session token.
const SessionCookieName = "aurora_admin_session"

// SecureCookies marks cookies Secure. Set to true in production.
var SecureCookies = false

// SessionToken returns the session cookie value, or "".
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireAdmin mounts a guard for every request under it and waits for the
// guard to leave the checking state. The login page passes through. Admin
// pages are redirected to the login page, and JSON endpoints get a 401.
// forget, when non-nil, is called with a token the authority rejected so
// per-session state can be released.
// POST: handlers below see the identity and token in the request context
func RequireAdmin(authority guard.Authority, timeout time.Duration, forget func(token string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard.IsExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := SessionToken(r)
			g := guard.Mount(r.Context(), authority, token, timeout)
			defer g.Unmount()
			st, id := g.Await(r.Context())

			switch guard.Decide(st, r.URL.Path) {
			case guard.Allow:
				ctx := ContextWithIdentity(r.Context(), id)
				ctx = context.WithValue(ctx, tokenContextKey, token)
				next.ServeHTTP(w, r.WithContext(ctx))
			default:
				slog.Info("auth_event", "event", "guard_denied", "path", r.URL.Path, "state", string(st))
				if token != "" && st == guard.Unauthenticated {
					ClearSessionCookie(w)
					if forget != nil {
						forget(token)
					}
				}
				if strings.HasPrefix(r.URL.Path, "/api/") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
					return
				}
				http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
			}
		})
	}
}

// IdentityFromContext returns the signed-in operator, if any.
func IdentityFromContext(ctx context.Context) (account.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(account.Identity)
	return id, ok
}

// SessionTokenFromContext returns the token RequireAdmin accepted.
func SessionTokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenContextKey).(string)
	return tok
}

// ContextWithIdentity returns ctx carrying id.
func ContextWithIdentity(ctx context.Context, id account.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// SetSessionCookie stores token for ttl.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
