package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fitsync/internal/domain"
)

type AccountStore struct {
	db *sqlx.DB
}

func NewAccountStore(db *sqlx.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	query := `
		SELECT id, username, strava_token, strava_refresh_token, strava_token_expires_at
		FROM users
		ORDER BY id`

	var accounts []domain.Account
	if err := s.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT id, username, strava_token, strava_refresh_token, strava_token_expires_at
		FROM users
		WHERE id = $1`

	var account domain.Account
	err := s.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateCredential persists a fresh token pair atomically; a failed update
// leaves the stored credential untouched.
func (s *AccountStore) UpdateCredential(ctx context.Context, id int64, cred *domain.Credential) error {
	query := `
		UPDATE users
		SET strava_token = $1, strava_refresh_token = $2, strava_token_expires_at = $3
		WHERE id = $4`

	result, err := s.db.ExecContext(ctx, query,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		id,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("account %d not found", id)
	}
	return nil
}
