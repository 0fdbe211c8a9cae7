package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightsmile/outreach/internal/archive"
	"github.com/brightsmile/outreach/internal/campaign"
	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/internal/intent"
	"github.com/brightsmile/outreach/internal/interactions"
	"github.com/brightsmile/outreach/internal/knowledge"
	"github.com/brightsmile/outreach/internal/llm"
	"github.com/brightsmile/outreach/internal/notify"
	"github.com/brightsmile/outreach/internal/observability/metrics"
	"github.com/brightsmile/outreach/internal/patients"
	"github.com/brightsmile/outreach/internal/scheduling"
	"github.com/brightsmile/outreach/pkg/logging"
)

// Services bundles the wired domain services the binaries mount.
type Services struct {
	Engine     *campaign.Engine
	Scheduling *scheduling.Service
	Patients   *patients.Repository
}

// BuildLLMClient wires the model chain: Bedrock primary with Gemini as the
// fallback provider. Returns a nil client when neither is configured; the
// returned model id is what requests should name.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (llm.Client, string) {
	if cfg == nil {
		return nil, ""
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var primary, fallback llm.Client
	model := strings.TrimSpace(cfg.BedrockModelID)
	if model != "" {
		primary = llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		switch {
		case err != nil:
			logger.Warn("gemini client unavailable", "error", err)
		case primary == nil:
			primary = gemini
			model = cfg.GeminiModelID
		default:
			fallback = gemini
		}
	}

	if primary == nil {
		logger.Warn("no LLM provider configured; drafting and classification use templates")
		return nil, ""
	}
	if fallback != nil {
		return llm.NewFallbackClient(primary, fallback, logger), model
	}
	return primary, model
}

// BuildSender assembles the channel dispatcher from the configured providers.
// Email goes through SES unless EMAIL_PROVIDER selects sendgrid or stub; the
// voice channel registers only when an API key is present.
func BuildSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.Sender {
	if logger == nil {
		logger = logging.Default()
	}
	dispatcher := notify.NewDispatcher(logger)

	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger); s != nil {
			dispatcher.Register(notify.ChannelEmail, s)
		} else {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; using stub email sender")
			dispatcher.Register(notify.ChannelEmail, notify.NewStubSender(logger))
		}
	case "stub":
		dispatcher.Register(notify.ChannelEmail, notify.NewStubSender(logger))
	default:
		dispatcher.Register(notify.ChannelEmail, notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger))
	}

	if strings.TrimSpace(cfg.VoiceAPIKey) != "" {
		voice, err := notify.NewVoiceSender(notify.VoiceConfig{
			BaseURL:    cfg.VoiceBaseURL,
			APIKey:     cfg.VoiceAPIKey,
			FromNumber: cfg.VoiceFromNumber,
			Timeout:    cfg.VoiceCallTimeout,
		}, logger)
		if err != nil {
			logger.Warn("voice sender unavailable", "error", err)
		} else {
			dispatcher.Register(notify.ChannelVoice, voice)
		}
	}

	if cfg.QuietHoursStart != "" || cfg.QuietHoursEnd != "" {
		loc, err := time.LoadLocation(cfg.ClinicTimezone)
		if err != nil {
			loc = time.UTC
		}
		window, err := notify.ParseQuietHours(cfg.QuietHoursStart, cfg.QuietHoursEnd, loc)
		if err != nil {
			logger.Warn("invalid quiet hours window, voice calls unrestricted", "error", err)
			return dispatcher
		}
		return notify.NewQuietHoursSender(dispatcher, window, logger)
	}

	return dispatcher
}

// BuildServices wires the outreach engine and its collaborators. The two
// database handles are required; everything else degrades per its package's
// rules when unconfigured.
func BuildServices(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, patientsDB *sql.DB, awsCfg aws.Config, m *metrics.OutreachMetrics, logger *logging.Logger) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("bootstrap: postgres pool is required")
	}
	if patientsDB == nil {
		return nil, fmt.Errorf("bootstrap: patients database is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Warn("invalid clinic timezone, using UTC", "timezone", cfg.ClinicTimezone, "error", err)
		loc = time.UTC
	}

	interactionLog := interactions.NewStore(pool)
	patientsRepo := patients.NewRepository(patientsDB)

	scheduler := scheduling.NewService(scheduling.NewStore(pool), interactionLog, scheduling.Config{
		Location:        loc,
		HorizonDays:     cfg.BookingHorizonDays,
		DefaultDuration: time.Duration(cfg.DefaultDurationMin) * time.Minute,
	}, logger)

	client, model := BuildLLMClient(ctx, cfg, awsCfg, logger)

	var classifier intent.Classifier
	if client != nil {
		classifier = intent.NewChain(logger,
			intent.NewLLMClassifier(client, model, loc),
			&intent.KeywordClassifier{Location: loc},
		)
	}

	var answerer knowledge.Answerer
	if client != nil {
		answerer = knowledge.NewLLMAnswerer(client, model, logger)
		if rdb := BuildRedisClient(ctx, cfg, logger, false); rdb != nil {
			answerer = knowledge.NewCachedAnswerer(answerer, rdb, logger)
		}
	}

	engineCfg := campaign.EngineConfig{
		Store:      campaign.NewStore(pool),
		Patients:   patientsRepo,
		Log:        interactionLog,
		Sender:     BuildSender(awsCfg, cfg, logger),
		Classifier: classifier,
		Answerer:   answerer,
		Scheduler:  scheduler,
		Writer:     campaign.NewWriter(client, model, loc, logger),
		Summarizer: campaign.NewSummarizer(client, model),
		Metrics:    m,
		Logger:     logger,

		Backoff:  campaign.ConstantBackoff(cfg.FollowUpInterval),
		Location: loc,

		DefaultDoctorID:    cfg.DefaultDoctorID,
		DefaultMaxAttempts: cfg.FollowUpMaxAttempts,
		SweepBatchSize:     cfg.SweepBatchSize,
	}
	if cfg.TranscriptBucket != "" {
		engineCfg.Archiver = archive.NewStore(s3.NewFromConfig(awsCfg), cfg.TranscriptBucket, logger.Logger)
	}

	return &Services{
		Engine:     campaign.NewEngine(engineCfg),
		Scheduling: scheduler,
		Patients:   patientsRepo,
	}, nil
}
