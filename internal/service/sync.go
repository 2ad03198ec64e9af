package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"fitsync/internal/config"
	"fitsync/internal/domain"
)

// ErrStorage marks storage failures that are fatal to the whole run, as
// opposed to per-account errors that only skip one account.
var ErrStorage = errors.New("storage failure")

type SyncService struct {
	source     ActivitySource
	accounts   AccountStore
	activities ActivityStore
	syncState  SyncStateStore
	txManager  TransactionManager
	publisher  Publisher
	refresher  *CredentialRefresher
	normalizer *Normalizer
	workers    *semaphore.Weighted
	logger     *slog.Logger
	config     config.SyncConfig
}

func NewSyncService(
	source ActivitySource,
	accounts AccountStore,
	activities ActivityStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	geocoder Geocoder,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:     source,
		accounts:   accounts,
		activities: activities,
		syncState:  syncState,
		txManager:  txManager,
		publisher:  publisher,
		refresher:  NewCredentialRefresher(source, accounts, logger),
		normalizer: NewNormalizer(geocoder, logger),
		workers:    semaphore.NewWeighted(int64(cfg.ChunkWorkers)),
		logger:     logger.With("component", "sync"),
		config:     cfg,
	}
}

// Sync runs one full pass over all accounts. Per-account failures mark that
// account skipped and the run continues; storage failures abort the run.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	logger := s.logger.With("run_id", uuid.NewString())

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	stats := &domain.SyncStats{Accounts: len(accounts)}

	logger.Info("starting sync run",
		"accounts", len(accounts),
		"lookback_days", s.config.LookbackDays,
		"chunk_workers", s.config.ChunkWorkers,
	)

	for i := range accounts {
		account := &accounts[i]

		accountStats, err := s.syncAccount(ctx, logger, account)
		if err != nil {
			if errors.Is(err, ErrStorage) {
				return stats, fmt.Errorf("account %d: %w", account.ID, err)
			}
			logger.Warn("account skipped",
				"user_id", account.ID,
				"state", domain.AccountSyncSkipped,
				"error", err,
			)
			stats.Skipped++
			continue
		}

		stats.Merge(accountStats)
		logger.Info("account synced",
			"user_id", account.ID,
			"state", domain.AccountSyncDone,
			"fetched", accountStats.Fetched,
			"inserted", accountStats.Inserted,
			"duplicates", accountStats.Duplicates,
		)
	}

	stats.Duration = time.Since(startTime)

	logger.Info("sync run completed",
		"accounts", stats.Accounts,
		"skipped", stats.Skipped,
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// SyncAccount runs an on-demand sync for a single account, e.g. the initial
// backfill right after linking.
func (s *SyncService) SyncAccount(ctx context.Context, accountID int64) (*domain.SyncStats, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d not found", accountID)
	}

	stats, err := s.syncAccount(ctx, s.logger, account)
	if err != nil {
		return nil, err
	}
	stats.Accounts = 1
	return stats, nil
}

// RefreshCredentials runs a refresh pass over all linked accounts.
func (s *SyncService) RefreshCredentials(ctx context.Context) error {
	return s.refresher.RefreshAll(ctx)
}

func (s *SyncService) syncAccount(ctx context.Context, logger *slog.Logger, account *domain.Account) (*domain.SyncStats, error) {
	if !account.Linked() {
		return nil, domain.ErrNotLinked
	}

	if err := s.refresher.Refresh(ctx, account); err != nil {
		return nil, fmt.Errorf("refresh credential: %w", err)
	}

	state, err := s.syncState.Get(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	after := state.LastSyncedAt
	if after.IsZero() {
		after = time.Now().AddDate(0, 0, -s.config.LookbackDays)
	}

	raws, err := s.source.ListActivities(ctx, *account.AccessToken, after)
	if err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}

	logger.Debug("fetched activities", "user_id", account.ID, "count", len(raws), "after", after)

	result := s.dispatch(ctx, *account.AccessToken, account.ID, raws)

	stats := &domain.SyncStats{
		Fetched:    len(raws),
		Duplicates: result.duplicates,
		Errors:     result.errors,
	}

	var inserted int64
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if len(result.records) > 0 {
			n, err := s.activities.BulkInsert(txCtx, result.records)
			if err != nil {
				return fmt.Errorf("bulk insert: %w", err)
			}
			inserted = n
		}

		state.UserID = account.ID
		state.LastSyncedAt = time.Now().UTC()
		state.TotalSynced += inserted

		if err := s.syncState.Update(txCtx, state); err != nil {
			return fmt.Errorf("update sync state: %w", err)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("persist: %w", errors.Join(ErrStorage, err))
	}
	stats.Inserted = int(inserted)

	if s.publisher != nil {
		for i := range result.records {
			if err := s.publisher.Publish(ctx, &result.records[i]); err != nil {
				logger.Warn("publish failed", "user_id", account.ID, "strava_activity_id", result.records[i].StravaActivityID, "error", err)
				stats.Errors++
			} else {
				stats.Published++
			}
		}
	}

	return stats, nil
}
