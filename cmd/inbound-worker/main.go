package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brightsmile/outreach/cmd/mainconfig"
	"github.com/brightsmile/outreach/internal/app/bootstrap"
	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/internal/inbound"
	"github.com/brightsmile/outreach/internal/observability/metrics"
	"github.com/brightsmile/outreach/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RepliesQueueURL == "" {
		logger.Error("inbound worker requires REPLIES_QUEUE_URL")
		os.Exit(1)
	}

	pool, err := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		logger.Error("inbound worker requires DATABASE_URL")
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

	queue := inbound.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.RepliesQueueURL)
	seen := bootstrap.BuildSeenStore(cfg, awsCfg)
	if seen == nil {
		logger.Error("inbound worker requires INBOUND_MESSAGES_TABLE")
		os.Exit(1)
	}

	worker, err := inbound.NewWorker(
		inbound.GrantIngest(cfg.InboundWatchEnabled),
		queue,
		services.Engine,
		seen,
		logger,
		inbound.WithWorkerCount(cfg.InboundWorkerCount),
		inbound.WithWatchCheckpoint(cfg.FromEmail),
	)
	if err != nil {
		if errors.Is(err, inbound.ErrIngestNotGranted) {
			logger.Error("refusing to start: reply ingestion is not granted to this process (set INBOUND_WATCH_ENABLED=true)")
		} else {
			logger.Error("failed to build inbound worker", "error", err)
		}
		os.Exit(1)
	}

	worker.Start(ctx)
	logger.Info("inbound worker started",
		"workers", cfg.InboundWorkerCount,
		"queue", cfg.RepliesQueueURL,
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down inbound worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("inbound worker stopped")
	case <-doneCtx.Done():
		logger.Error("inbound worker shutdown timed out", "error", doneCtx.Err())
	}
}
