package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gymdesk/internal/api"
	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/checkin"
	"gymdesk/internal/config"
	"gymdesk/internal/logging"
	"gymdesk/internal/media"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
	"gymdesk/internal/report"
	"gymdesk/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer func() { _ = logger.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
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
	defer func() {
		if err := backends.Close(); err != nil {
			logger.Warn("closing backends", zap.Error(err))
		}
	}()

	payments := payment.NewService(backends.Payments, cfg.Currency, loc, logger.Named("payment"))
	members := member.NewService(backends.Members, payments, member.Settings{
		Location:      loc,
		DefaultAmount: int64(cfg.DefaultRenewalAmount),
		MaxRetries:    cfg.RenewalMaxRetries,
	}, logger.Named("member"))
	att := attendance.NewService(backends.Attendance, backends.Members, loc, nil, logger.Named("attendance"))
	dispatcher := checkin.NewQueueDispatcher(backends.Queue, 2*time.Second, logger.Named("checkin"))
	gate := auth.NewGate(backends.Admins, logger.Named("auth"))

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := gate.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return err
		}
	}

	// A memory queue is only visible in this process, so drain it here.
	consumerDone := make(chan struct{})
	if cfg.QueueBackend == "memory" {
		go func() {
			defer close(consumerDone)
			if err := attendance.NewConsumer(backends.Queue, att, logger.Named("consumer")).Run(ctx); err != nil {
				logger.Error("attendance consumer failed", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	deps := api.Deps{
		Members:    members,
		Payments:   payments,
		Attendance: att,
		CheckIn:    checkin.NewService(backends.Members, dispatcher, loc, nil, logger.Named("checkin")),
		Gate:       gate,
		Reports:    report.NewService(members, payments, att),
		Health:     backends.Checks,
		Logger:     logger.Named("http"),
	}
	if cfg.CloudinaryConfigured() {
		deps.Photos = media.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		logger.Info("cloudinary configured", zap.String("cloud", cfg.CloudinaryCloudName))
	} else {
		logger.Info("cloudinary not configured, photo uploads disabled")
	}

	router := api.NewRouter(deps, api.Options{
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		RequireAdminToken: cfg.RequireAdminToken,
		JWTIssuer:         cfg.JWTIssuer,
		JWTSigningKey:     cfg.JWTSigningKey,
		AccessTTL:         cfg.AccessTTL,
		Location:          loc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")
	stop()

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}
	<-consumerDone

	logger.Info("server exited")
	return nil
}
