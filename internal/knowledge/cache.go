package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/brightsmile/outreach/pkg/logging"
)

const answerTTL = 24 * time.Hour

type cachedAnswer struct {
	Answer string `json:"answer"`
	Found  bool   `json:"found"`
}

// CachedAnswerer memoizes answers in Redis so repeated questions skip the
// model round trip. Cache failures fall through to the inner answerer.
type CachedAnswerer struct {
	inner  Answerer
	redis  *redis.Client
	tracer trace.Tracer
	logger *logging.Logger
}

var _ Answerer = (*CachedAnswerer)(nil)

func NewCachedAnswerer(inner Answerer, rdb *redis.Client, logger *logging.Logger) *CachedAnswerer {
	if inner == nil {
		panic("knowledge: nil inner answerer")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedAnswerer{
		inner:  inner,
		redis:  rdb,
		tracer: otel.Tracer("outreach.internal.knowledge"),
		logger: logger,
	}
}

func (c *CachedAnswerer) Answer(ctx context.Context, question string) (string, bool, error) {
	if c.redis == nil {
		return c.inner.Answer(ctx, question)
	}

	ctx, span := c.tracer.Start(ctx, "knowledge.answer")
	defer span.End()

	key := answerKey(question)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var hit cachedAnswer
		if err := json.Unmarshal(data, &hit); err == nil {
			return hit.Answer, hit.Found, nil
		}
	} else if err != redis.Nil {
		span.RecordError(err)
		c.logger.Warn("answer cache read failed", "error", err)
	}

	answer, found, err := c.inner.Answer(ctx, question)
	if err != nil {
		span.RecordError(err)
		return "", false, err
	}

	data, err = json.Marshal(cachedAnswer{Answer: answer, Found: found})
	if err == nil {
		if err := c.redis.Set(ctx, key, data, answerTTL).Err(); err != nil {
			span.RecordError(err)
			c.logger.Warn("answer cache write failed", "error", err)
		}
	}
	return answer, found, nil
}

func answerKey(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(question))))
	return fmt.Sprintf("kb:answer:%s", hex.EncodeToString(sum[:]))
}
