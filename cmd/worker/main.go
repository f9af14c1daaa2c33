package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gymdesk/internal/attendance"
	"gymdesk/internal/config"
	"gymdesk/internal/logging"
	"gymdesk/internal/store"
)

// Worker drains the shared check-in queue into the attendance log.
func main() {
	cfg := config.Load()
	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}).Named("worker")
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
}

func run(cfg config.App, logger *zap.Logger) error {
	if cfg.QueueBackend != "redis" || cfg.StoreBackend == "memory" {
		return errors.New("worker needs QUEUE_BACKEND=redis and a shared STORE_BACKEND")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	backends, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	for name, check := range backends.Checks {
		if !check(ctx) {
			logger.Warn("dependency not reachable yet", zap.String("dependency", name))
		}
	}

	att := attendance.NewService(backends.Attendance, backends.Members, loc, nil, logger)
	return attendance.NewConsumer(backends.Queue, att, logger).Run(ctx)
}
