package intent

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Intent is the routed meaning of a patient reply.
type Intent string

const (
	BookingRequest     Intent = "booking_request"
	ServiceDenial      Intent = "service_denial"
	IrrelevantConfused Intent = "irrelevant_confused"
	Question           Intent = "question"
)

// ErrUnavailable indicates the classifier backend could not produce a label.
// Callers degrade to IrrelevantConfused rather than failing the reply.
var ErrUnavailable = errors.New("intent: classifier unavailable")

// Classification is the structured read of one reply.
type Classification struct {
	Intent    Intent
	Sentiment string
	// RequestedTime is set when the reply names a concrete appointment time.
	RequestedTime *time.Time
}

// Classifier turns a raw reply into a Classification.
type Classifier interface {
	Classify(ctx context.Context, message string) (Classification, error)
}

// Normalize collapses any label outside the closed intent set to
// IrrelevantConfused. Unknown labels are routed, never rejected.
func Normalize(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case BookingRequest:
		return BookingRequest
	case ServiceDenial:
		return ServiceDenial
	case Question:
		return Question
	case IrrelevantConfused:
		return IrrelevantConfused
	}
	return IrrelevantConfused
}
