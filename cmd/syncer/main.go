package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"fitsync/internal/config"
	"fitsync/internal/geocode"
	"fitsync/internal/publisher"
	"fitsync/internal/scheduler"
	"fitsync/internal/service"
	"fitsync/internal/source/strava"
	"fitsync/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher
	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Initialize stores
	accountStore := postgres.NewAccountStore(db)
	activityStore := postgres.NewActivityStore(db)
	syncStateStore := postgres.NewSyncStateStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Initialize Strava client
	stravaClient := strava.New(strava.Config{
		BaseURL:        cfg.Strava.BaseURL,
		TokenURL:       cfg.Strava.TokenURL,
		ClientID:       cfg.Strava.ClientID,
		ClientSecret:   cfg.Strava.ClientSecret,
		PageSize:       cfg.Strava.PageSize,
		Timeout:        cfg.Strava.Timeout,
		MaxAttempts:    cfg.Strava.Retry.MaxAttempts,
		InitialBackoff: cfg.Strava.Retry.InitialBackoff,
		MaxBackoff:     cfg.Strava.Retry.MaxBackoff,
	}, logger)

	// Initialize reverse-geocoding client
	geocoder := geocode.New(geocode.Config{
		BaseURL: cfg.Geocode.BaseURL,
		Timeout: cfg.Geocode.Timeout,
	}, logger)

	// Create sync service
	syncService := service.NewSyncService(
		stravaClient,
		accountStore,
		activityStore,
		syncStateStore,
		txManager,
		rabbitMQ,
		geocoder,
		logger,
		cfg.Sync,
	)

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, cfg.Sync.RefreshInterval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting activity syncer",
		"sync_interval", cfg.Sync.Interval,
		"refresh_interval", cfg.Sync.RefreshInterval,
		"lookback_days", cfg.Sync.LookbackDays,
		"chunk_workers", cfg.Sync.ChunkWorkers,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
