package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/brightsmile/outreach/pkg/logging"
)

func TestRequestLoggerEmitsCompletionLine(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	handler := chimiddleware.RequestID(
		RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"c-1"}`))
		})),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var line struct {
		Msg       string `json:"msg"`
		Method    string `json:"method"`
		Path      string `json:"path"`
		Status    int    `json:"status"`
		Bytes     int    `json:"bytes"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line.Msg != "http request" {
		t.Fatalf("expected completion message, got %q", line.Msg)
	}
	if line.Method != http.MethodPost || line.Path != "/api/v1/campaigns" {
		t.Fatalf("expected request identity logged, got %s %s", line.Method, line.Path)
	}
	if line.Status != http.StatusCreated {
		t.Fatalf("expected captured status 201, got %d", line.Status)
	}
	if line.Bytes == 0 {
		t.Fatalf("expected byte count logged")
	}
	if line.RequestID == "" {
		t.Fatalf("expected request id from upstream middleware")
	}
}

func TestRequestLoggerNilLogger(t *testing.T) {
	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through with nil logger, got %d", rec.Code)
	}
}
