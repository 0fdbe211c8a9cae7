package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightsmile/outreach/pkg/logging"
)

// Handler exposes availability and appointment operations over HTTP.
type Handler struct {
	service         *Service
	defaultDoctorID string
	logger          *logging.Logger
}

// NewHandler creates a scheduling handler.
func NewHandler(service *Service, defaultDoctorID string, logger *logging.Logger) *Handler {
	return &Handler{
		service:         service,
		defaultDoctorID: defaultDoctorID,
		logger:          logger,
	}
}

// AvailabilityResponse is the body returned by GET /api/v1/availability.
type AvailabilityResponse struct {
	DoctorID string   `json:"doctor_id"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
}

// Availability handles GET /api/v1/availability?doctor_id=...&date=YYYY-MM-DD.
// A fully booked day returns an empty slot list, not an error.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctor_id")
	if doctorID == "" {
		doctorID = h.defaultDoctorID
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, h.service.Location())
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusUnprocessableEntity)
		return
	}

	slots, err := h.service.OpenSlots(r.Context(), doctorID, date)
	if err != nil {
		h.respondError(w, err, "failed to derive availability")
		return
	}

	resp := AvailabilityResponse{
		DoctorID: doctorID,
		Date:     dateStr,
		Slots:    make([]string, 0, len(slots)),
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, slot.Format(time.RFC3339))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// BookAppointmentRequest is the body for POST /api/v1/appointments.
type BookAppointmentRequest struct {
	PatientID       string    `json:"patient_id"`
	DoctorID        string    `json:"doctor_id,omitempty"`
	CampaignID      string    `json:"campaign_id,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
}

// BookAppointment handles POST /api/v1/appointments. Losing a race for the
// slot is a 409 with a machine-readable reason, never a partial write.
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientID == "" || req.StartsAt.IsZero() {
		http.Error(w, "patient_id and starts_at are required", http.StatusUnprocessableEntity)
		return
	}
	if req.DoctorID == "" {
		req.DoctorID = h.defaultDoctorID
	}

	appt, err := h.service.Book(r.Context(), BookRequest{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		CampaignID:      req.CampaignID,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		CreatedFrom:     CreatedFromAdmin,
	})
	if err != nil {
		h.respondError(w, err, "failed to book appointment")
		return
	}

	h.writeJSON(w, http.StatusCreated, appt)
}

// CancelAppointment handles POST /api/v1/appointments/{appointmentID}/cancel.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	if id == "" {
		http.Error(w, "missing appointment id", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "failed to cancel appointment")
		return
	}

	h.writeJSON(w, http.StatusOK, appt)
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	h.logger.Error(logMsg, "error", err)
	switch {
	case errors.Is(err, ErrInvalidDate):
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Reason: "invalid_date"})
	case errors.Is(err, ErrSlotConflict):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Reason: "slot_conflict"})
	case errors.Is(err, ErrSlotUnavailable):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Reason: "slot_unavailable"})
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
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
