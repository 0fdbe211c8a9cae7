package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CLINIC_TIMEZONE", "")
	t.Setenv("BEDROCK_MODEL_ID", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ClinicTimezone != "America/New_York" {
		t.Fatalf("expected default clinic timezone, got %s", cfg.ClinicTimezone)
	}
	if cfg.BookingHorizonDays != 90 {
		t.Fatalf("expected default booking horizon, got %d", cfg.BookingHorizonDays)
	}
	if cfg.FollowUpInterval != 5*24*time.Hour {
		t.Fatalf("expected default follow-up interval, got %s", cfg.FollowUpInterval)
	}
	if cfg.FollowUpMaxAttempts != 3 {
		t.Fatalf("expected default max attempts, got %d", cfg.FollowUpMaxAttempts)
	}
	if cfg.InboundWatchEnabled {
		t.Fatalf("expected inbound watch disabled by default")
	}
	if cfg.BedrockModelID != "" {
		t.Fatalf("expected default bedrock model empty, got %s", cfg.BedrockModelID)
	}
	if cfg.DefaultDoctorID != "primary" {
		t.Fatalf("expected default doctor id, got %s", cfg.DefaultDoctorID)
	}
	if cfg.IngressRatePerSec != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %f", cfg.IngressRatePerSec)
	}
	if cfg.IngressBurst != 10 {
		t.Fatalf("expected default ingress burst, got %d", cfg.IngressBurst)
	}
	if cfg.QuietHoursStart != "" || cfg.QuietHoursEnd != "" {
		t.Fatalf("expected quiet hours disabled by default, got %q-%q", cfg.QuietHoursStart, cfg.QuietHoursEnd)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("CLINIC_TIMEZONE", "Europe/London")
	t.Setenv("BOOKING_HORIZON_DAYS", "30")
	t.Setenv("FOLLOWUP_INTERVAL", "72h")
	t.Setenv("FOLLOWUP_MAX_ATTEMPTS", "5")
	t.Setenv("EMAIL_PROVIDER", "SendGrid")
	t.Setenv("INBOUND_WATCH_ENABLED", "true")
	t.Setenv("INBOUND_WORKER_COUNT", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staff.example.com,")
	t.Setenv("OPERATOR_AUTH_SECRET", "op-secret")
	t.Setenv("INGRESS_RATE_PER_SEC", "2.5")
	t.Setenv("QUIET_HOURS_START", "21:00")
	t.Setenv("QUIET_HOURS_END", "08:00")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.ClinicTimezone != "Europe/London" {
		t.Fatalf("expected timezone override, got %s", cfg.ClinicTimezone)
	}
	if cfg.BookingHorizonDays != 30 {
		t.Fatalf("expected horizon override, got %d", cfg.BookingHorizonDays)
	}
	if cfg.FollowUpInterval != 72*time.Hour {
		t.Fatalf("expected follow-up interval override, got %s", cfg.FollowUpInterval)
	}
	if cfg.FollowUpMaxAttempts != 5 {
		t.Fatalf("expected max attempts override, got %d", cfg.FollowUpMaxAttempts)
	}
	if cfg.EmailProvider != "sendgrid" {
		t.Fatalf("expected normalized email provider, got %s", cfg.EmailProvider)
	}
	if !cfg.InboundWatchEnabled {
		t.Fatalf("expected inbound watch enabled")
	}
	if cfg.InboundWorkerCount != 4 {
		t.Fatalf("expected worker count override, got %d", cfg.InboundWorkerCount)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staff.example.com" {
		t.Fatalf("expected trimmed origin list, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.OperatorAuthSecret != "op-secret" {
		t.Fatalf("expected operator secret override, got %s", cfg.OperatorAuthSecret)
	}
	if cfg.IngressRatePerSec != 2.5 {
		t.Fatalf("expected ingress rate override, got %f", cfg.IngressRatePerSec)
	}
	if cfg.QuietHoursStart != "21:00" || cfg.QuietHoursEnd != "08:00" {
		t.Fatalf("expected quiet hours override, got %q-%q", cfg.QuietHoursStart, cfg.QuietHoursEnd)
	}
}
