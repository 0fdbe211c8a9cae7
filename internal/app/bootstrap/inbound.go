package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/internal/inbound"
	"github.com/brightsmile/outreach/pkg/logging"
)

// BuildReplyQueue selects the reply transport: the in-process queue for
// single-node setups, SQS otherwise. The MemoryQueue return is non-nil only
// on the in-process path so the caller can attach the inline worker to it.
func BuildReplyQueue(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (inbound.Queue, *inbound.MemoryQueue) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseMemoryQueue {
		q := inbound.NewMemoryQueue(64)
		logger.Info("using in-process reply queue")
		return q, q
	}
	if strings.TrimSpace(cfg.RepliesQueueURL) == "" {
		return nil, nil
	}
	return inbound.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.RepliesQueueURL), nil
}

// BuildSeenStore returns the DynamoDB dedupe store, or nil when no table is
// configured.
func BuildSeenStore(cfg *appconfig.Config, awsCfg aws.Config) *inbound.SeenStore {
	if strings.TrimSpace(cfg.InboundMessagesTable) == "" {
		return nil
	}
	return inbound.NewSeenStore(dynamodb.NewFromConfig(awsCfg), cfg.InboundMessagesTable)
}
