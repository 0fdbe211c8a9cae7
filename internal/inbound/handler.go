package inbound

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/brightsmile/outreach/pkg/logging"
)

// WebhookHandler accepts provider reply notifications and enqueues them.
// The HTTP path never runs the engine; the queue is the only handoff.
type WebhookHandler struct {
	queue  Queue
	logger *logging.Logger
	now    func() time.Time
}

// NewWebhookHandler creates the reply ingress handler.
func NewWebhookHandler(queue Queue, logger *logging.Logger) *WebhookHandler {
	if queue == nil {
		panic("inbound: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		queue:  queue,
		logger: logger.WithComponent("reply-webhook"),
		now:    time.Now,
	}
}

// ReplyAccepted is the body returned for an enqueued reply.
type ReplyAccepted struct {
	Queued    bool   `json:"queued"`
	MessageID string `json:"message_id"`
}

// HandleReply handles POST /api/v1/replies.
func (h *WebhookHandler) HandleReply(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.logger.Error("failed to decode reply envelope", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if env.Body == "" {
		http.Error(w, "reply body is required", http.StatusUnprocessableEntity)
		return
	}
	if env.CampaignID == "" && env.ThreadID == "" && env.From == "" {
		http.Error(w, "reply needs campaign_id, thread_id or from to correlate", http.StatusUnprocessableEntity)
		return
	}

	if env.MessageID == "" {
		env.MessageID = uuid.NewString()
	}
	if env.ReceivedAt.IsZero() {
		env.ReceivedAt = h.now().UTC()
	}

	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to marshal reply envelope", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.queue.Send(r.Context(), string(payload)); err != nil {
		h.logger.Error("failed to enqueue reply", "error", err, "message_id", env.MessageID)
		http.Error(w, "Failed to enqueue reply", http.StatusInternalServerError)
		return
	}

	h.logger.Info("reply enqueued", "message_id", env.MessageID, "thread_id", env.ThreadID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(ReplyAccepted{Queued: true, MessageID: env.MessageID}); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
