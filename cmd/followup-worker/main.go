package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brightsmile/outreach/cmd/mainconfig"
	"github.com/brightsmile/outreach/internal/app/bootstrap"
	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/internal/observability/metrics"
	followupworker "github.com/brightsmile/outreach/internal/worker/followup"
	"github.com/brightsmile/outreach/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("follow-up worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool, err := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	patientsDB, err := bootstrap.OpenPatientsDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open patients database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = patientsDB.Close() }()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	m := metrics.NewOutreachMetrics(prometheus.NewRegistry())
	services, err := bootstrap.BuildServices(ctx, cfg, pool, patientsDB, awsCfg, m, logger)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		loc = time.UTC
	}

	sweeper := followupworker.NewSweeper(services.Engine, cfg.SweepSchedule, loc, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error("failed to start sweeper", "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("follow-up worker shutting down")
	cancel()
	sweeper.Stop()
}
