package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"aurora/internal/adapters/auth"
	"aurora/internal/domain/result"
)

// AuthForLogin is the slice of the session authority Login needs.
type AuthForLogin interface {
	SignIn(ctx context.Context, email, password string) result.Result[auth.Session]
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Auth AuthForLogin
}

// ErrInvalidCredentials is the only credential failure callers see.
var ErrInvalidCredentials = auth.ErrInvalidCredentials

// ExecuteLogin exchanges credentials for a session.
// PRE: none; empty credentials are rejected
// POST: Ok(session) on success; Err(ErrInvalidCredentials) for any credential
// problem, so unknown accounts and wrong passwords look the same
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) result.Result[auth.Session] {
	if input.Email == "" || input.Password == "" {
		return result.Err[auth.Session](ErrInvalidCredentials)
	}

	res := deps.Auth.SignIn(ctx, input.Email, input.Password)
	if err := res.Error(); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrMissingCredentials) {
			return result.Err[auth.Session](ErrInvalidCredentials)
		}
		slog.Error("auth_event", "event", "login_error", "email", input.Email, "error", err)
		return res
	}

	slog.Info("auth_event", "event", "login_success", "email", res.Data().Identity.Email)
	return res
}
