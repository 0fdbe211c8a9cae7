package campaign

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightsmile/outreach/pkg/logging"
)

// Handler wires HTTP requests to the campaign engine.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates a campaign handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// CreateCampaignRequest is the body for POST /api/v1/campaigns.
type CreateCampaignRequest struct {
	PatientID      string     `json:"patient_id"`
	Type           string     `json:"campaign_type"`
	Channel        string     `json:"channel,omitempty"`
	DoctorID       string     `json:"doctor_id,omitempty"`
	Service        string     `json:"service_name,omitempty"`
	MaxAttempts    int        `json:"max_attempts,omitempty"`
	FirstAttemptAt *time.Time `json:"first_attempt_at,omitempty"`
}

// Create handles POST /api/v1/campaigns.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode create campaign request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.engine.CreateCampaign(r.Context(), NewCampaignInput{
		PatientID:      req.PatientID,
		Type:           Type(req.Type),
		Channel:        Channel(req.Channel),
		DoctorID:       req.DoctorID,
		Service:        req.Service,
		MaxAttempts:    req.MaxAttempts,
		FirstAttemptAt: req.FirstAttemptAt,
	})
	if err != nil {
		h.respondError(w, err, "failed to create campaign")
		return
	}

	h.writeJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/v1/campaigns/{campaignID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if id == "" {
		http.Error(w, "missing campaign id", http.StatusBadRequest)
		return
	}

	c, err := h.engine.GetCampaign(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "failed to load campaign")
		return
	}

	h.writeJSON(w, http.StatusOK, c)
}

// Trigger handles POST /api/v1/campaigns/{campaignID}/trigger. The response
// is the engine's OutreachResult: what happened (sent, not_due, terminal,
// max_attempts), the campaign as the trigger left it, and the next timer.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if id == "" {
		http.Error(w, "missing campaign id", http.StatusBadRequest)
		return
	}

	res, err := h.engine.TriggerOutreach(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "failed to trigger outreach")
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// RunDueResponse is the body returned by POST /api/v1/outreach/run.
type RunDueResponse struct {
	Processed int `json:"processed"`
}

// RunDue handles POST /api/v1/outreach/run. Cron and the scheduled lambda
// hit this to sweep every campaign whose follow-up timer has fired.
func (h *Handler) RunDue(w http.ResponseWriter, r *http.Request) {
	processed, err := h.engine.RunDue(r.Context())
	if err != nil {
		h.logger.Error("outreach sweep failed", "error", err)
		http.Error(w, "Failed to run due campaigns", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, RunDueResponse{Processed: processed})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	h.logger.Error(logMsg, "error", err)
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConcurrentModification):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
