package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	CORSAllowedOrigins []string
	OperatorAuthSecret string
	WebhookToken       string
	IngressRatePerSec  float64
	IngressBurst       int

	DatabaseURL string

	ClinicName         string
	ClinicTimezone     string
	DefaultDoctorID    string
	BookingHorizonDays int
	DefaultDurationMin int

	FollowUpInterval    time.Duration
	FollowUpMaxAttempts int
	SweepSchedule       string
	SweepBatchSize      int

	EmailProvider string
	FromEmail     string
	FromName      string

	SendGridAPIKey string

	VoiceAPIKey      string
	VoiceBaseURL     string
	VoiceFromNumber  string
	VoiceCallTimeout time.Duration

	QuietHoursStart string
	QuietHoursEnd   string

	AWSRegion               string
	AWSAccessKeyID          string
	AWSSecretAccessKey      string
	AWSEndpointOverride     string
	BedrockEndpointOverride string
	AWSMaxRetries           int

	RepliesQueueURL      string
	UseMemoryQueue       bool
	InboundWatchEnabled  bool
	InboundWorkerCount   int
	InboundMessagesTable string

	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	TranscriptBucket string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		OperatorAuthSecret: getEnv("OPERATOR_AUTH_SECRET", ""),
		WebhookToken:       getEnv("WEBHOOK_TOKEN", ""),
		IngressRatePerSec:  getEnvAsFloat("INGRESS_RATE_PER_SEC", 0),
		IngressBurst:       getEnvAsInt("INGRESS_BURST", 10),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		ClinicName:         getEnv("CLINIC_NAME", "Bright Smile Clinic"),
		ClinicTimezone:     getEnv("CLINIC_TIMEZONE", "America/New_York"),
		DefaultDoctorID:    getEnv("DEFAULT_DOCTOR_ID", "primary"),
		BookingHorizonDays: getEnvAsInt("BOOKING_HORIZON_DAYS", 90),
		DefaultDurationMin: getEnvAsInt("DEFAULT_APPOINTMENT_MINUTES", 45),

		FollowUpInterval:    getEnvAsDuration("FOLLOWUP_INTERVAL", 5*24*time.Hour),
		FollowUpMaxAttempts: getEnvAsInt("FOLLOWUP_MAX_ATTEMPTS", 3),
		SweepSchedule:       getEnv("FOLLOWUP_SWEEP_SCHEDULE", "0 * * * *"),
		SweepBatchSize:      getEnvAsInt("FOLLOWUP_SWEEP_BATCH_SIZE", 50),

		EmailProvider: strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		FromEmail:     getEnv("FROM_EMAIL", "care@brightsmileclinic.com"),
		FromName:      getEnv("FROM_NAME", "Bright Smile Clinic"),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		VoiceAPIKey:      getEnv("VOICE_API_KEY", ""),
		VoiceBaseURL:     getEnv("VOICE_BASE_URL", "https://api.telnyx.com/v2"),
		VoiceFromNumber:  getEnv("VOICE_FROM_NUMBER", ""),
		VoiceCallTimeout: getEnvAsDuration("VOICE_CALL_TIMEOUT", 10*time.Second),

		QuietHoursStart: getEnv("QUIET_HOURS_START", ""),
		QuietHoursEnd:   getEnv("QUIET_HOURS_END", ""),

		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:     getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockEndpointOverride: getEnv("BEDROCK_ENDPOINT_OVERRIDE", ""),
		AWSMaxRetries:           getEnvAsInt("AWS_MAX_RETRIES", 3),

		RepliesQueueURL:      getEnv("REPLIES_QUEUE_URL", ""),
		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", false),
		InboundWatchEnabled:  getEnvAsBool("INBOUND_WATCH_ENABLED", false),
		InboundWorkerCount:   getEnvAsInt("INBOUND_WORKER_COUNT", 2),
		InboundMessagesTable: getEnv("INBOUND_MESSAGES_TABLE", "inbound_messages"),

		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		TranscriptBucket: getEnv("TRANSCRIPT_BUCKET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping empty
// entries.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
