package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fitsync/internal/domain"
)

// refreshMargin is how long before expiry a token must be renewed.
const refreshMargin = 60 * time.Minute

// CredentialRefresher renews expiring Strava tokens. Refreshes for the same
// account are serialized; no two goroutines may race for one account's token.
type CredentialRefresher struct {
	source   ActivitySource
	accounts AccountStore
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewCredentialRefresher(source ActivitySource, accounts AccountStore, logger *slog.Logger) *CredentialRefresher {
	return &CredentialRefresher{
		source:   source,
		accounts: accounts,
		logger:   logger.With("component", "refresher"),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Refresh renews the account's token if it expires within the refresh margin.
// On success the new credential is persisted first and only then applied to
// the in-memory account; on failure the existing credential is left untouched.
func (r *CredentialRefresher) Refresh(ctx context.Context, account *domain.Account) error {
	lock := r.accountLock(account.ID)
	lock.Lock()
	defer lock.Unlock()

	if !account.Linked() {
		return domain.ErrNotLinked
	}

	if time.Until(*account.TokenExpiresAt) > refreshMargin {
		r.logger.Debug("token still valid", "user_id", account.ID, "expires_at", *account.TokenExpiresAt)
		return nil
	}

	cred, err := r.source.RefreshToken(ctx, *account.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh token for account %d: %w", account.ID, err)
	}

	if err := r.accounts.UpdateCredential(ctx, account.ID, cred); err != nil {
		return fmt.Errorf("persist credential for account %d: %w", account.ID, err)
	}

	account.AccessToken = &cred.AccessToken
	account.RefreshToken = &cred.RefreshToken
	account.TokenExpiresAt = &cred.ExpiresAt

	r.logger.Info("token refreshed", "user_id", account.ID, "expires_at", cred.ExpiresAt)
	return nil
}

// RefreshAll runs a refresh pass over every account. Per-account failures are
// logged and skipped; the pass continues.
func (r *CredentialRefresher) RefreshAll(ctx context.Context) error {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	for i := range accounts {
		account := &accounts[i]
		if !account.Linked() {
			r.logger.Debug("account not linked", "user_id", account.ID)
			continue
		}
		if err := r.Refresh(ctx, account); err != nil {
			r.logger.Warn("refresh failed", "user_id", account.ID, "error", err)
		}
	}

	return nil
}

func (r *CredentialRefresher) accountLock(id int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}
