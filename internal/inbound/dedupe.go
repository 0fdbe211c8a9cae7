package inbound

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// seenTTL keeps dedupe records long past any provider redelivery window.
const seenTTL = 7 * 24 * time.Hour

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type seenRecord struct {
	MessageID string `dynamodbav:"messageId"`
	SeenAt    string `dynamodbav:"seenAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

// checkpointRecord shares the dedupe table; the key prefix keeps cursor items
// out of the message id space. Cursors carry no TTL.
type checkpointRecord struct {
	MessageID  string `dynamodbav:"messageId"`
	Checkpoint string `dynamodbav:"checkpoint"`
	UpdatedAt  string `dynamodbav:"updatedAt"`
}

func watchKey(mailbox string) string {
	return "watch#" + mailbox
}

// SeenStore remembers processed provider message ids so a redelivered reply
// is handled exactly once. Backed by a DynamoDB table with messageId as the
// primary key and expiresAt as the TTL attribute.
type SeenStore struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

// NewSeenStore builds a store backed by the provided DynamoDB client.
func NewSeenStore(client dynamoAPI, tableName string) *SeenStore {
	if client == nil {
		panic("inbound: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("inbound: table name cannot be empty")
	}
	return &SeenStore{client: client, tableName: tableName, now: time.Now}
}

// MarkSeen records the message id. It returns true when this call was the
// first sighting and false when the id was already recorded.
func (s *SeenStore) MarkSeen(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		// Nothing to key on; let the message through rather than lose it.
		return true, nil
	}

	now := s.now().UTC()
	item, err := attributevalue.MarshalMap(seenRecord{
		MessageID: messageID,
		SeenAt:    now.Format(time.RFC3339Nano),
		ExpiresAt: now.Add(seenTTL).Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("inbound: failed to marshal seen record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(messageId)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return false, nil
		}
		return false, fmt.Errorf("inbound: failed to record seen message: %w", err)
	}
	return true, nil
}

// Checkpoint returns the mailbox's stored watch cursor, or "" when the
// mailbox has never checkpointed.
func (s *SeenStore) Checkpoint(ctx context.Context, mailbox string) (string, error) {
	if mailbox == "" {
		return "", nil
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"messageId": &types.AttributeValueMemberS{Value: watchKey(mailbox)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("inbound: failed to load watch checkpoint: %w", err)
	}
	if out.Item == nil {
		return "", nil
	}
	var rec checkpointRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return "", fmt.Errorf("inbound: failed to unmarshal watch checkpoint: %w", err)
	}
	return rec.Checkpoint, nil
}

// SetCheckpoint stores the mailbox's watch cursor. Latest write wins; the
// worker only moves it forward.
func (s *SeenStore) SetCheckpoint(ctx context.Context, mailbox, checkpoint string) error {
	if mailbox == "" || checkpoint == "" {
		return nil
	}
	item, err := attributevalue.MarshalMap(checkpointRecord{
		MessageID:  watchKey(mailbox),
		Checkpoint: checkpoint,
		UpdatedAt:  s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("inbound: failed to marshal watch checkpoint: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("inbound: failed to store watch checkpoint: %w", err)
	}
	return nil
}

// Forget removes the dedupe record so a redelivery can retry the message.
// Called when processing failed after MarkSeen.
func (s *SeenStore) Forget(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"messageId": &types.AttributeValueMemberS{Value: messageID},
		},
	})
	if err != nil {
		return fmt.Errorf("inbound: failed to release seen message: %w", err)
	}
	return nil
}
