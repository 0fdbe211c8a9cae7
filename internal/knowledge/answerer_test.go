package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/brightsmile/outreach/internal/llm"
)

type fakeLLM struct {
	text  string
	err   error
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	f.calls++
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func TestAnswerFound(t *testing.T) {
	a := NewLLMAnswerer(&fakeLLM{text: "Yes, we are always happy to welcome new patients."}, "test-model", nil)
	answer, found, err := a.Answer(context.Background(), "do you accept new patients?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !found || answer == "" {
		t.Errorf("expected an answer, got found=%v answer=%q", found, answer)
	}
}

func TestAnswerNoAnswerSentinel(t *testing.T) {
	a := NewLLMAnswerer(&fakeLLM{text: "NO_ANSWER"}, "test-model", nil)
	answer, found, err := a.Answer(context.Background(), "do you validate parking?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if found || answer != "" {
		t.Errorf("expected no answer, got found=%v answer=%q", found, answer)
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	f := &fakeLLM{text: "should not be called"}
	a := NewLLMAnswerer(f, "test-model", nil)
	_, found, err := a.Answer(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if found {
		t.Error("expected no answer for empty question")
	}
	if f.calls != 0 {
		t.Errorf("model called %d times for empty question", f.calls)
	}
}

func TestAnswerModelDownFallsBackToKeywords(t *testing.T) {
	a := NewLLMAnswerer(&fakeLLM{err: errors.New("throttled")}, "test-model", nil)

	answer, found, err := a.Answer(context.Background(), "tell me about implants")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !found || answer == "" {
		t.Errorf("expected keyword answer for implants, got found=%v", found)
	}

	_, found, err = a.Answer(context.Background(), "do you validate parking?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if found {
		t.Error("expected no answer when model is down and keywords miss")
	}
}
