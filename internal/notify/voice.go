package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brightsmile/outreach/pkg/logging"
)

const defaultVoiceBaseURL = "https://api.telnyx.com/v2"

// VoiceConfig controls the outbound-call sender.
type VoiceConfig struct {
	BaseURL    string
	APIKey     string
	FromNumber string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// VoiceSender places an outbound call that reads the message body to the
// patient. It wraps the provider's REST API directly; there is no SDK.
type VoiceSender struct {
	apiKey     string
	baseURL    string
	fromNumber string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewVoiceSender creates a voice sender. Returns an error when the API key is
// missing rather than a half-configured client.
func NewVoiceSender(cfg VoiceConfig, logger *logging.Logger) (*VoiceSender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("notify: voice API key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultVoiceBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &VoiceSender{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		fromNumber: cfg.FromNumber,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Send places a call to msg.To that speaks msg.Body.
func (s *VoiceSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("notify: voice destination number required")
	}

	body, err := json.Marshal(struct {
		To   string `json:"to"`
		From string `json:"from"`
		Text string `json:"text"`
	}{
		To:   msg.To,
		From: s.fromNumber,
		Text: msg.Body,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal voice payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/calls", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build voice request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("voice call failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: voice call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.logger.Error("voice provider returned error status", "status", resp.StatusCode, "body", string(respBody), "to", msg.To)
		return fmt.Errorf("notify: voice provider returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Data struct {
			CallControlID string `json:"call_control_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("voice response decode failed", "error", err)
	}

	s.logger.Info("voice call placed", "to", msg.To, "call_id", decoded.Data.CallControlID)
	return nil
}

var _ Sender = (*VoiceSender)(nil)
