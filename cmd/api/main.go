package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightsmile/outreach/cmd/mainconfig"
	"github.com/brightsmile/outreach/internal/api/router"
	"github.com/brightsmile/outreach/internal/app/bootstrap"
	"github.com/brightsmile/outreach/internal/campaign"
	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/internal/http/handlers"
	"github.com/brightsmile/outreach/internal/inbound"
	"github.com/brightsmile/outreach/internal/observability/metrics"
	"github.com/brightsmile/outreach/internal/reporting"
	"github.com/brightsmile/outreach/internal/scheduling"
	"github.com/brightsmile/outreach/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting outreach API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		logger.Error("DATABASE_URL is required")
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

	metricsHandler, registry, m := setupMetrics()

	services, err := bootstrap.BuildServices(ctx, cfg, pool, patientsDB, awsCfg, m, logger)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	replyQueue, memoryQueue := bootstrap.BuildReplyQueue(cfg, awsCfg, logger)
	var repliesHandler *inbound.WebhookHandler
	if replyQueue != nil {
		repliesHandler = inbound.NewWebhookHandler(replyQueue, logger)
	}
	inlineWorker := setupInlineWorker(ctx, cfg, services.Engine, memoryQueue, logger)

	routerCfg := &router.Config{
		Logger:            logger,
		CampaignHandler:   campaign.NewHandler(services.Engine, logger),
		SchedulingHandler: scheduling.NewHandler(services.Scheduling, cfg.DefaultDoctorID, logger),
		RepliesHandler:    repliesHandler,
		LeadsHandler:      handlers.NewLeadIntakeHandler(services.Patients, services.Engine, logger),
		DashboardHandler:  reporting.NewDashboardHandler(reporting.NewFunnelRepository(pool), registry, logger),
		MetricsHandler:    metricsHandler,

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		OperatorAuthSecret: cfg.OperatorAuthSecret,
		WebhookToken:       cfg.WebhookToken,
		IngressRatePerSec:  cfg.IngressRatePerSec,
		IngressBurst:       cfg.IngressBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	cancel()
	waitForInlineWorker(inlineWorker, logger)

	logger.Info("server stopped")
}

// setupMetrics builds the process-local registry and its scrape handler. The
// registry doubles as the gatherer behind the staff dashboard.
func setupMetrics() (http.Handler, *prometheus.Registry, *metrics.OutreachMetrics) {
	registry := prometheus.NewRegistry()
	m := metrics.NewOutreachMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), registry, m
}

// setupInlineWorker drains the in-process reply queue when one is configured.
// Returns nil when replies flow through SQS instead, or when reply ingestion
// is not granted to this process.
func setupInlineWorker(ctx context.Context, cfg *appconfig.Config, sink inbound.ReplySink, queue *inbound.MemoryQueue, logger *logging.Logger) *inbound.Worker {
	if queue == nil {
		return nil
	}

	worker, err := inbound.NewWorker(
		inbound.GrantIngest(cfg.InboundWatchEnabled),
		queue,
		sink,
		nil,
		logger,
		inbound.WithWorkerCount(cfg.InboundWorkerCount),
	)
	if err != nil {
		logger.Warn("inline reply worker disabled", "error", err)
		return nil
	}

	worker.Start(ctx)
	logger.Info("inline reply worker started", "workers", cfg.InboundWorkerCount)
	return worker
}

func waitForInlineWorker(worker *inbound.Worker, logger *logging.Logger) {
	if worker == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("inline reply worker stopped")
	case <-time.After(30 * time.Second):
		logger.Error("inline reply worker shutdown timed out")
	}
}
