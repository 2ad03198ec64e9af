package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"fitsync/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, userID int64) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT id, user_id, last_synced_at, total_synced
		FROM account_sync_state
		WHERE user_id = $1`

	err := s.db.GetContext(ctx, &state, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// Empty state for never-synced accounts; the zero LastSyncedAt
		// triggers the initial lookback window.
		return &domain.SyncState{
			UserID:       userID,
			LastSyncedAt: time.Time{},
			TotalSynced:  0,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO account_sync_state (user_id, last_synced_at, total_synced)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			total_synced = EXCLUDED.total_synced`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.UserID,
		state.LastSyncedAt,
		state.TotalSynced,
	)
	return err
}
