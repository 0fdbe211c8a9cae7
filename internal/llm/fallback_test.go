package llm

import (
	"context"
	"errors"
	"testing"
)

type scriptedClient struct {
	resp  Response
	err   error
	calls int
}

func (s *scriptedClient) Complete(context.Context, Request) (Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &scriptedClient{resp: Response{Text: "primary"}}
	fallback := &scriptedClient{resp: Response{Text: "fallback"}}
	c := NewFallbackClient(primary, fallback, nil)

	resp, err := c.Complete(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if resp.Text != "primary" {
		t.Fatalf("expected primary response, got %q", resp.Text)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be called, got %d calls", fallback.calls)
	}
}

func TestFallbackKicksInOnPrimaryFailure(t *testing.T) {
	primary := &scriptedClient{err: errors.New("throttled")}
	fallback := &scriptedClient{resp: Response{Text: "fallback"}}
	c := NewFallbackClient(primary, fallback, nil)

	resp, err := c.Complete(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if resp.Text != "fallback" {
		t.Fatalf("expected fallback response, got %q", resp.Text)
	}
}

func TestFallbackReturnsLastErrorWhenBothFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	fallbackErr := errors.New("fallback down")
	c := NewFallbackClient(&scriptedClient{err: primaryErr}, &scriptedClient{err: fallbackErr}, nil)

	_, err := c.Complete(context.Background(), Request{Model: "m"})
	if !errors.Is(err, fallbackErr) {
		t.Fatalf("expected fallback error, got %v", err)
	}
}

func TestFallbackNilFallbackReturnsPrimaryError(t *testing.T) {
	primaryErr := errors.New("primary down")
	c := NewFallbackClient(&scriptedClient{err: primaryErr}, nil, nil)

	_, err := c.Complete(context.Background(), Request{Model: "m"})
	if !errors.Is(err, primaryErr) {
		t.Fatalf("expected primary error, got %v", err)
	}
}
