package bootstrap

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/internal/inbound"
	"github.com/brightsmile/outreach/pkg/logging"
)

func TestBuildReplyQueueMemoryPath(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: true}
	queue, memory := BuildReplyQueue(cfg, aws.Config{}, logging.New("error"))
	if queue == nil || memory == nil {
		t.Fatalf("expected memory queue on both returns")
	}
	if q, ok := queue.(*inbound.MemoryQueue); !ok || q != memory {
		t.Fatalf("expected the queue and memory returns to be the same instance")
	}
}

func TestBuildReplyQueueSQSPath(t *testing.T) {
	cfg := &appconfig.Config{RepliesQueueURL: "http://localhost:4566/queue/replies"}
	queue, memory := BuildReplyQueue(cfg, aws.Config{Region: "us-east-1"}, logging.New("error"))
	if queue == nil {
		t.Fatalf("expected SQS queue")
	}
	if memory != nil {
		t.Fatalf("expected no memory queue on the SQS path")
	}
}

func TestBuildReplyQueueDisabled(t *testing.T) {
	queue, memory := BuildReplyQueue(&appconfig.Config{}, aws.Config{}, logging.New("error"))
	if queue != nil || memory != nil {
		t.Fatalf("expected no queue without configuration")
	}
}

func TestBuildSeenStore(t *testing.T) {
	if s := BuildSeenStore(&appconfig.Config{}, aws.Config{}); s != nil {
		t.Fatalf("expected nil store without a table name")
	}
	s := BuildSeenStore(&appconfig.Config{InboundMessagesTable: "inbound_messages", AWSRegion: "us-east-1"}, aws.Config{Region: "us-east-1"})
	if s == nil {
		t.Fatalf("expected seen store when table configured")
	}
}
