package intent

import (
	"context"

	"github.com/brightsmile/outreach/pkg/logging"
)

// Chain tries each classifier in order and returns the first answer. The
// last link should be one that cannot fail, like KeywordClassifier.
type Chain struct {
	classifiers []Classifier
	logger      *logging.Logger
}

var _ Classifier = (*Chain)(nil)

func NewChain(logger *logging.Logger, classifiers ...Classifier) *Chain {
	if logger == nil {
		logger = logging.Default()
	}
	return &Chain{classifiers: classifiers, logger: logger}
}

func (c *Chain) Classify(ctx context.Context, message string) (Classification, error) {
	var lastErr error
	for i, cl := range c.classifiers {
		out, err := cl.Classify(ctx, message)
		if err == nil {
			if i > 0 {
				c.logger.Info("classifier fallback succeeded", "link", i)
			}
			return out, nil
		}
		lastErr = err
		c.logger.Warn("classifier link failed", "link", i, "error", err)
	}
	if lastErr == nil {
		lastErr = ErrUnavailable
	}
	return Classification{}, lastErr
}
