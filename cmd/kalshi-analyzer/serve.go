package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/kalshi-analyzer/internal/api"
	"github.com/yourusername/kalshi-analyzer/internal/config"
	"github.com/yourusername/kalshi-analyzer/internal/datasource"
	"github.com/yourusername/kalshi-analyzer/internal/health"
	"github.com/yourusername/kalshi-analyzer/internal/logger"
	"github.com/yourusername/kalshi-analyzer/internal/metrics"
	"github.com/yourusername/kalshi-analyzer/internal/scheduler"
	"github.com/yourusername/kalshi-analyzer/internal/service"
	"github.com/yourusername/kalshi-analyzer/internal/store"
)

const shutdownTimeout = 10 * time.Second

// staleAfter is how many missed refresh intervals make /ready fail
const staleAfter = 3

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with scheduled event refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.ValidateEnvironment(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"commit":      GitCommit,
	}).Info("Kalshi analyzer starting")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	eventStore, err := store.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create event store: %w", err)
	}
	defer func() {
		if err := eventStore.Close(); err != nil {
			appLog.WithError(err).Error("Failed to close event store")
		}
	}()

	sourceLogger := logger.NewSourceLogger(appLog)
	httpLogger := log.New(os.Stdout, "kalshi-http: ", log.LstdFlags)
	source, err := datasource.NewFactory(cfg, httpLogger, sourceLogger).NewEventSource()
	if err != nil {
		return fmt.Errorf("failed to create event source: %w", err)
	}

	svc := service.NewAnalyzerService(
		source,
		eventStore,
		newEngine(cfg),
		logger.NewCalculationLogger(appLog),
		sourceLogger,
		service.Config{DefaultTotalStake: cfg.Calculator.DefaultTotalStake},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Refresh(ctx); err != nil {
		appLog.WithError(err).Warn("Initial event refresh failed")
	}

	sched := scheduler.NewScheduler(svc, log.New(os.Stdout, "scheduler: ", log.LstdFlags))
	if err := sched.ScheduleRefresh(cfg.Refresh.IntervalSeconds); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	healthSrv := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        strconv.Itoa(cfg.Server.HealthPort),
		Logger:      appLog,
		Checks: []health.Check{
			{Name: "event_store", Backend: cfg.Cache.Backend, Pinger: svc},
		},
		Freshness:      svc,
		MaxSnapshotAge: staleAfter * time.Duration(cfg.Refresh.IntervalSeconds) * time.Second,
	})
	if err := healthSrv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	apiSrv := api.NewServer(cfg, svc, appLog)
	if err := apiSrv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	healthSrv.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"port":             cfg.Server.Port,
		"refresh_interval": cfg.Refresh.IntervalSeconds,
		"cache_backend":    cfg.Cache.Backend,
		"source":           source.Name(),
	}).Info("Kalshi analyzer running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthSrv.SetReady(false)
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Failed to stop scheduler")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("API server shutdown error")
	}
	cancel()

	appLog.Info("Kalshi analyzer stopped")
	return nil
}
