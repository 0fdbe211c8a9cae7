package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/golang-jwt/jwt/v5"
)

type config struct {
	upstreamBaseURL string
	operatorSecret  string
	upstreamTimeout time.Duration
}

func loadConfig() (config, error) {
	baseURL := strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL"))
	if baseURL == "" {
		return config{}, errors.New("UPSTREAM_BASE_URL is required")
	}

	timeout := 2 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return config{
		upstreamBaseURL: strings.TrimRight(baseURL, "/"),
		operatorSecret:  strings.TrimSpace(os.Getenv("OPERATOR_AUTH_SECRET")),
		upstreamTimeout: timeout,
	}, nil
}

// sweepResult is what the scheduled invocation reports back to EventBridge.
type sweepResult struct {
	Processed int `json:"processed"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	client := &http.Client{Timeout: cfg.upstreamTimeout}
	lambda.Start(func(ctx context.Context, evt events.CloudWatchEvent) (sweepResult, error) {
		return handle(ctx, cfg, client, evt)
	})
}

// handle forwards one scheduled tick to the API server's sweep endpoint. The
// API owns the database and the send providers; the lambda only supplies the
// clock and the operator credential.
func handle(ctx context.Context, cfg config, client *http.Client, evt events.CloudWatchEvent) (sweepResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.upstreamTimeout)
	defer cancel()

	url := cfg.upstreamBaseURL + "/api/v1/outreach/run"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, nil)
	if err != nil {
		return sweepResult{}, fmt.Errorf("build sweep request: %w", err)
	}

	if cfg.operatorSecret != "" {
		token, err := mintOperatorToken(cfg.operatorSecret, time.Now())
		if err != nil {
			return sweepResult{}, fmt.Errorf("mint operator token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return sweepResult{}, fmt.Errorf("call sweep endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return sweepResult{}, fmt.Errorf("sweep endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result sweepResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return sweepResult{}, fmt.Errorf("decode sweep response: %w", err)
	}
	return result, nil
}

// mintOperatorToken signs a short-lived bearer accepted by the staff
// endpoints. The subject shows up in the API's audit logs.
func mintOperatorToken(secret string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   "followup-lambda",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
