package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/outreach/internal/llm"
)

const classifierSystemPrompt = `You are an AI assistant processing inbound patient replies for a dental clinic.
Read the patient's reply and classify its primary intent. You must choose one of the following four intents only:
booking_request, service_denial, irrelevant_confused, question.
Also classify the sentiment as positive, neutral, or negative.
Respond with only a JSON object of the form {"intent": "...", "sentiment": "..."} and nothing else.`

// LLMClassifier labels replies with a language model. The model's answer is
// normalized into the closed intent set; anything unparseable is reported as
// ErrUnavailable so the caller can fall back.
type LLMClassifier struct {
	client   llm.Client
	model    string
	location *time.Location
	now      func() time.Time
}

var _ Classifier = (*LLMClassifier)(nil)

func NewLLMClassifier(client llm.Client, model string, loc *time.Location) *LLMClassifier {
	if client == nil {
		panic("intent: nil llm client")
	}
	return &LLMClassifier{client: client, model: model, location: loc, now: time.Now}
}

func (c *LLMClassifier) Classify(ctx context.Context, message string) (Classification, error) {
	resp, err := c.client.Complete(ctx, llm.Request{
		Model:       c.model,
		System:      []string{classifierSystemPrompt},
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: message}},
		MaxTokens:   128,
		Temperature: 0,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed struct {
		Intent    string `json:"intent"`
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &parsed); err != nil {
		return Classification{}, fmt.Errorf("%w: bad classifier output %q", ErrUnavailable, resp.Text)
	}

	out := Classification{
		Intent:    Normalize(parsed.Intent),
		Sentiment: strings.ToLower(strings.TrimSpace(parsed.Sentiment)),
	}
	if out.Sentiment == "" {
		out.Sentiment = "neutral"
	}
	if out.Intent == BookingRequest {
		out.RequestedTime = ParseRequestedTime(message, c.now(), c.location)
	}
	return out, nil
}

// stripCodeFence unwraps ```json ... ``` blocks some models insist on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
