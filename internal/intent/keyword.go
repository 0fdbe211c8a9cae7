package intent

import (
	"context"
	"strings"
	"time"
)

var bookingKeywords = []string{"book", "schedule", "appointment", "time slot"}

var denialKeywords = []string{"not interested", "stop", "unsubscribe", "opt out", "leave me alone"}

var questionKeywords = []string{"what", "how", "when", "where", "why", "?"}

// KeywordClassifier labels replies by keyword lookup. It is the terminal
// link of the classifier chain and never returns an error.
type KeywordClassifier struct {
	// Location resolves relative day references when the reply names a time.
	Location *time.Location
	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

var _ Classifier = (*KeywordClassifier)(nil)

func (c *KeywordClassifier) Classify(_ context.Context, message string) (Classification, error) {
	lower := strings.ToLower(message)

	out := Classification{Intent: IrrelevantConfused, Sentiment: "neutral"}
	switch {
	case containsAny(lower, bookingKeywords):
		out.Intent = BookingRequest
	case containsAny(lower, denialKeywords) || isBareNo(lower):
		out.Intent = ServiceDenial
	case containsAny(lower, questionKeywords):
		out.Intent = Question
	}

	if out.Intent == BookingRequest {
		now := time.Now()
		if c.Now != nil {
			now = c.Now()
		}
		out.RequestedTime = ParseRequestedTime(message, now, c.Location)
	}
	return out, nil
}

func containsAny(msg string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

// isBareNo catches "no" and "no thanks" without firing on words like
// "know" or "notice".
func isBareNo(msg string) bool {
	return containsWord(msg, "no") || containsWord(msg, "nope")
}
