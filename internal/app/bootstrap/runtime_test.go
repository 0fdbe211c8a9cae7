package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	logger := logging.New("error")
	if c := BuildRedisClient(context.Background(), &appconfig.Config{}, logger, false); c != nil {
		t.Fatalf("expected nil client without an address")
	}
	if c := BuildRedisClient(context.Background(), nil, logger, false); c != nil {
		t.Fatalf("expected nil client for nil config")
	}
}

func TestBuildRedisClientVerify(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := logging.New("error")

	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	t.Cleanup(func() { _ = client.Close() })

	if c := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: "127.0.0.1:1"}, logger, true); c != nil {
		t.Fatalf("expected nil client when ping fails")
	}
}

func TestConnectPostgresPoolEmptyURL(t *testing.T) {
	pool, err := ConnectPostgresPool(context.Background(), "", logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestOpenPatientsDBEmptyURL(t *testing.T) {
	db, err := OpenPatientsDB("", logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != nil {
		t.Fatalf("expected nil handle for empty URL")
	}
}
