package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brightsmile/outreach/internal/llm"
)

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func TestLLMClassifierParsesJSON(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{text: `{"intent": "service_denial", "sentiment": "negative"}`}, "test-model", time.UTC)
	got, err := c.Classify(context.Background(), "please stop")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Intent != ServiceDenial || got.Sentiment != "negative" {
		t.Errorf("got %+v", got)
	}
}

func TestLLMClassifierStripsCodeFence(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{text: "```json\n{\"intent\": \"question\", \"sentiment\": \"neutral\"}\n```"}, "test-model", time.UTC)
	got, err := c.Classify(context.Background(), "do you take new patients?")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Intent != Question {
		t.Errorf("got intent %s, want question", got.Intent)
	}
}

func TestLLMClassifierUnknownLabelNormalized(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{text: `{"intent": "purchase", "sentiment": ""}`}, "test-model", time.UTC)
	got, err := c.Classify(context.Background(), "hm")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Intent != IrrelevantConfused {
		t.Errorf("got intent %s, want irrelevant_confused", got.Intent)
	}
	if got.Sentiment != "neutral" {
		t.Errorf("got sentiment %s, want neutral", got.Sentiment)
	}
}

func TestLLMClassifierBackendErrorIsUnavailable(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{err: errors.New("throttled")}, "test-model", time.UTC)
	_, err := c.Classify(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLLMClassifierGarbageIsUnavailable(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{text: "booking_request"}, "test-model", time.UTC)
	_, err := c.Classify(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLLMClassifierExtractsRequestedTime(t *testing.T) {
	c := NewLLMClassifier(&fakeLLM{text: `{"intent": "booking_request", "sentiment": "positive"}`}, "test-model", time.UTC)
	c.now = func() time.Time { return parseNow }

	got, err := c.Classify(context.Background(), "book me for tuesday at 2pm")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.RequestedTime == nil {
		t.Fatal("expected a requested time")
	}
	want := time.Date(2025, time.March, 11, 14, 0, 0, 0, time.UTC)
	if !got.RequestedTime.Equal(want) {
		t.Errorf("got %v, want %v", got.RequestedTime, want)
	}
}

func TestChainFallsBackToKeyword(t *testing.T) {
	chain := NewChain(nil,
		NewLLMClassifier(&fakeLLM{err: errors.New("down")}, "test-model", time.UTC),
		&KeywordClassifier{},
	)
	got, err := chain.Classify(context.Background(), "I want to book an appointment")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Intent != BookingRequest {
		t.Errorf("got %s, want booking_request", got.Intent)
	}
}

func TestChainAllFail(t *testing.T) {
	chain := NewChain(nil, NewLLMClassifier(&fakeLLM{err: errors.New("down")}, "test-model", time.UTC))
	_, err := chain.Classify(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
