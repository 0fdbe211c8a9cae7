package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brightsmile/outreach/internal/campaign"
	"github.com/brightsmile/outreach/internal/patients"
	"github.com/brightsmile/outreach/pkg/logging"
)

// PatientUpserter persists lead contact details keyed by email.
type PatientUpserter interface {
	Upsert(ctx context.Context, p *patients.Patient) error
}

// CampaignStarter opens recovery campaigns for ingested leads.
type CampaignStarter interface {
	CreateCampaign(ctx context.Context, in campaign.NewCampaignInput) (*campaign.Campaign, error)
	LatestForPatient(ctx context.Context, patientID string) (*campaign.Campaign, error)
}

// LeadIntakeHandler turns a lead submission into a patient record plus an
// open recovery campaign. Submitting the same email twice reuses the open
// campaign instead of double-contacting the patient.
type LeadIntakeHandler struct {
	patients  PatientUpserter
	campaigns CampaignStarter
	logger    *logging.Logger
}

// NewLeadIntakeHandler creates the lead ingestion handler.
func NewLeadIntakeHandler(patients PatientUpserter, campaigns CampaignStarter, logger *logging.Logger) *LeadIntakeHandler {
	return &LeadIntakeHandler{
		patients:  patients,
		campaigns: campaigns,
		logger:    logger,
	}
}

// LeadRequest is the body for POST /api/v1/leads.
type LeadRequest struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	PatientType string     `json:"patient_type,omitempty"`
	Treatments  []string   `json:"treatments,omitempty"`
	LastVisitAt *time.Time `json:"last_visit_at,omitempty"`
	Service     string     `json:"service_name,omitempty"`
	Channel     string     `json:"channel,omitempty"`
	DoctorID    string     `json:"doctor_id,omitempty"`
}

// LeadResponse reports the upserted patient and the campaign that will
// reach out to them.
type LeadResponse struct {
	Patient         *patients.Patient  `json:"patient"`
	Campaign        *campaign.Campaign `json:"campaign"`
	CampaignCreated bool               `json:"campaign_created"`
}

// CreateLead handles POST /api/v1/leads.
func (h *LeadIntakeHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode lead request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Name == "" {
		http.Error(w, "name and email are required", http.StatusUnprocessableEntity)
		return
	}

	patientType := patients.Type(req.PatientType)
	if patientType == "" {
		patientType = patients.TypeColdLead
	}
	p := &patients.Patient{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Type:       patientType,
		Treatments: req.Treatments,
		LastVisit:  req.LastVisitAt,
	}
	if err := h.patients.Upsert(r.Context(), p); err != nil {
		h.logger.Error("failed to upsert lead", "error", err, "email", req.Email)
		http.Error(w, "Failed to save lead", http.StatusInternalServerError)
		return
	}

	c, created, err := h.ensureCampaign(r.Context(), p.ID, req)
	if err != nil {
		h.logger.Error("failed to open campaign for lead", "error", err, "patient_id", p.ID)
		http.Error(w, "Failed to open campaign", http.StatusInternalServerError)
		return
	}

	h.logger.Info("lead ingested",
		"patient_id", p.ID, "campaign_id", c.ID, "campaign_created", created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(LeadResponse{Patient: p, Campaign: c, CampaignCreated: created}); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func (h *LeadIntakeHandler) ensureCampaign(ctx context.Context, patientID string, req LeadRequest) (*campaign.Campaign, bool, error) {
	latest, err := h.campaigns.LatestForPatient(ctx, patientID)
	if err != nil && !errors.Is(err, campaign.ErrNotFound) {
		return nil, false, err
	}
	if latest != nil && !latest.State.Terminal() {
		return latest, false, nil
	}

	c, err := h.campaigns.CreateCampaign(ctx, campaign.NewCampaignInput{
		PatientID: patientID,
		Type:      campaign.TypeRecovery,
		Channel:   campaign.Channel(req.Channel),
		DoctorID:  req.DoctorID,
		Service:   req.Service,
	})
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}
