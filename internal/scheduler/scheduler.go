package scheduler

import (
	"context"
	"log/slog"
	"time"

	"fitsync/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
	RefreshCredentials(ctx context.Context) error
}

type Scheduler struct {
	syncer          Syncer
	syncInterval    time.Duration
	refreshInterval time.Duration
	logger          *slog.Logger
}

func NewScheduler(syncer Syncer, syncInterval, refreshInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:          syncer,
		syncInterval:    syncInterval,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"sync_interval", s.syncInterval,
		"refresh_interval", s.refreshInterval,
	)

	s.runRefresh(ctx)
	s.runSync(ctx)

	syncTicker := time.NewTicker(s.syncInterval)
	defer syncTicker.Stop()
	refreshTicker := time.NewTicker(s.refreshInterval)
	defer refreshTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-refreshTicker.C:
			s.runRefresh(ctx)
		case <-syncTicker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	if _, err := s.syncer.Sync(syncCtx); err != nil {
		s.logger.Error("sync failed", "error", err)
	}
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if err := s.syncer.RefreshCredentials(refreshCtx); err != nil {
		s.logger.Error("credential refresh failed", "error", err)
	}
}
