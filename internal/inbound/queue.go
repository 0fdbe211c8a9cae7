// Package inbound ingests patient replies: the webhook enqueues raw reply
// envelopes, the worker drains the queue, deduplicates by provider message
// id, and hands each reply to the campaign engine.
package inbound

import "context"

// Queue decouples reply ingestion from reply processing. Backed by SQS in
// deployment and by MemoryQueue in tests and single-process setups.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is one queued reply envelope.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}
