package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/brightsmile/outreach/internal/campaign"
	"github.com/brightsmile/outreach/pkg/logging"
)

// ErrIngestNotGranted is returned when a process without the reply-ingest
// capability tries to build a worker.
var ErrIngestNotGranted = errors.New("inbound: reply ingest capability not granted")

// Capability records whether this process may consume the reply queue.
// Exactly one deployment process should hold a granted capability; holding
// it is what authorizes emitting reply events into the engine. The zero
// value grants nothing.
type Capability struct {
	granted bool
}

// GrantIngest issues the consume capability from the deployment flag.
func GrantIngest(enabled bool) Capability {
	return Capability{granted: enabled}
}

// Granted reports whether the holder may consume the queue.
func (c Capability) Granted() bool {
	return c.granted
}

// ReplySink consumes one correlated reply. *campaign.Engine implements it.
type ReplySink interface {
	ReceiveReply(ctx context.Context, reply campaign.Reply) (*campaign.Campaign, error)
}

// Deduper remembers processed provider message ids. *SeenStore implements it.
type Deduper interface {
	MarkSeen(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// CheckpointStore persists the mailbox watch cursor. *SeenStore implements it.
type CheckpointStore interface {
	SetCheckpoint(ctx context.Context, mailbox, checkpoint string) error
}

type workerConfig struct {
	workers          int
	receiveBatchSize int
	receiveWaitSecs  int
	mailbox          string
}

const (
	defaultWorkerCount  = 2
	defaultWaitSeconds  = 2
	defaultBatchSize    = 5
	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10
)

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the SQS long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// WithWatchCheckpoint makes the worker advance the named mailbox's watch
// cursor as replies get processed, so a re-subscription resumes where the
// previous watch left off. Requires a Deduper that stores checkpoints.
func WithWatchCheckpoint(mailbox string) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.mailbox = strings.TrimSpace(mailbox)
	}
}

// Worker drains the reply queue and feeds the campaign engine.
type Worker struct {
	queue       Queue
	sink        ReplySink
	seen        Deduper
	checkpoints CheckpointStore
	logger      *logging.Logger
	cfg         workerConfig
	wg          sync.WaitGroup

	cpMu           sync.Mutex
	lastCheckpoint time.Time
}

// NewWorker builds a worker. It refuses to build one for a process that was
// not granted the reply-ingest capability. seen may be nil to run without
// dedupe (the memory queue never redelivers).
func NewWorker(cap Capability, queue Queue, sink ReplySink, seen Deduper, logger *logging.Logger, opts ...WorkerOption) (*Worker, error) {
	if !cap.Granted() {
		return nil, ErrIngestNotGranted
	}
	if queue == nil {
		panic("inbound: queue cannot be nil")
	}
	if sink == nil {
		panic("inbound: reply sink cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveBatchSize: defaultBatchSize,
		receiveWaitSecs:  defaultWaitSeconds,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Worker{
		queue:  queue,
		sink:   sink,
		seen:   seen,
		logger: logger.WithComponent("inbound-worker"),
		cfg:    cfg,
	}
	if cp, ok := seen.(CheckpointStore); ok {
		w.checkpoints = cp
	}
	return w, nil
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("reply worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("reply worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive replies", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg Message) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Body), &env); err != nil {
		w.logger.Error("failed to decode reply envelope", "error", err, "queue_message_id", msg.ID)
		w.deleteMessage(ctx, msg.ReceiptHandle)
		return
	}

	dedupeKey := env.MessageID
	if dedupeKey == "" {
		dedupeKey = msg.ID
	}

	if w.seen != nil {
		fresh, err := w.seen.MarkSeen(ctx, dedupeKey)
		if err != nil {
			// Leave the message queued; redelivery retries the claim.
			w.logger.Error("dedupe check failed", "error", err, "message_id", dedupeKey)
			return
		}
		if !fresh {
			w.logger.Info("duplicate reply skipped", "message_id", dedupeKey)
			w.deleteMessage(ctx, msg.ReceiptHandle)
			return
		}
	}

	c, err := w.sink.ReceiveReply(ctx, env.Reply())
	switch {
	case err == nil:
		w.logger.Info("reply processed",
			"message_id", dedupeKey, "campaign_id", c.ID, "state", string(c.State))
		w.deleteMessage(ctx, msg.ReceiptHandle)
		w.advanceCheckpoint(ctx, env.ReceivedAt)

	case errors.Is(err, campaign.ErrNotFound), errors.Is(err, campaign.ErrPatientNotFound):
		// Unroutable replies are dropped, not retried.
		w.logger.Warn("reply matched no campaign, dropping",
			"message_id", dedupeKey, "from", env.From, "error", err)
		w.deleteMessage(ctx, msg.ReceiptHandle)

	default:
		w.logger.Error("reply processing failed, leaving for redelivery",
			"message_id", dedupeKey, "error", err)
		if w.seen != nil {
			if ferr := w.seen.Forget(ctx, dedupeKey); ferr != nil {
				w.logger.Error("failed to release dedupe claim; redelivery will be skipped",
					"message_id", dedupeKey, "error", ferr)
			}
		}
	}
}

// advanceCheckpoint moves the mailbox cursor forward, never backward, so an
// out-of-order delivery cannot rewind the resume point.
func (w *Worker) advanceCheckpoint(ctx context.Context, receivedAt time.Time) {
	if w.checkpoints == nil || w.cfg.mailbox == "" || receivedAt.IsZero() {
		return
	}

	w.cpMu.Lock()
	if !receivedAt.After(w.lastCheckpoint) {
		w.cpMu.Unlock()
		return
	}
	w.lastCheckpoint = receivedAt
	w.cpMu.Unlock()

	checkpoint := receivedAt.UTC().Format(time.RFC3339Nano)
	if err := w.checkpoints.SetCheckpoint(ctx, w.cfg.mailbox, checkpoint); err != nil {
		w.logger.Warn("failed to advance watch checkpoint",
			"mailbox", w.cfg.mailbox, "error", err)
	}
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err)
	}
}
