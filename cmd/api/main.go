package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gainvault/gainvault/internal/config"
	"github.com/gainvault/gainvault/internal/infra"
	"github.com/gainvault/gainvault/internal/interest"
	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/logging"
	"github.com/gainvault/gainvault/internal/ratepolicy"
	"github.com/gainvault/gainvault/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, 0)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	// The accrual job is shared between the cron scheduler and the manual
	// trigger endpoint, so both apply the same idempotence checks.
	accrualJob := interest.NewJob(
		ledger.NewPostgresLedger(db, cfg.ApplyMaxRetries),
		interest.NewPostgresRepository(db),
		ratepolicy.DefaultInterestPolicy(),
		logger,
	)

	scheduler, err := interest.NewScheduler(accrualJob, cfg.AccrualCron, logger)
	if err != nil {
		logger.Error("build accrual scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	srv, err := server.New(cfg, db, cache, accrualJob, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	scheduler.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
