package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	accountStore "aurora/internal/adapters/storage/account"
	"aurora/internal/domain/account"
)

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// SeedAdminInput carries the bootstrap credentials.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
	Now          func() time.Time
}

// ExecuteSeedAdmin creates the local admin account if it does not exist yet.
// It never overwrites an existing password.
// PRE: storage is migrated
// POST: an account for input.Email exists; created reports whether it was new
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (created bool, err error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return false, errors.New("admin email and password are required")
	}

	_, err = deps.AccountStore.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, accountStore.ErrNotFound) {
		return false, err
	}

	acct := account.Account{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return false, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return false, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return false, err
	}
	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return true, nil
}
