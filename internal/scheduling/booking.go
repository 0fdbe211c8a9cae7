package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightsmile/outreach/internal/interactions"
	"github.com/brightsmile/outreach/pkg/logging"
)

var schedulingTracer = otel.Tracer("outreach.internal.scheduling")

// InteractionAppender records booking events on the campaign timeline.
type InteractionAppender interface {
	Append(ctx context.Context, e *interactions.Entry) error
}

// Config carries the clinic's booking window.
type Config struct {
	Location        *time.Location
	HorizonDays     int
	DefaultDuration time.Duration
}

// Service books, cancels and completes appointments. Availability is always
// re-derived from current appointments at call time, never trusted from an
// earlier offer.
type Service struct {
	store    *Store
	appender InteractionAppender
	cfg      Config
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(store *Store, appender InteractionAppender, cfg Config, logger *logging.Logger) *Service {
	if store == nil {
		panic("scheduling: store required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 90
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 45 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, appender: appender, cfg: cfg, logger: logger, now: time.Now}
}

// Location returns the clinic's scheduling timezone.
func (s *Service) Location() *time.Location {
	return s.cfg.Location
}

// OpenSlots returns the free slot starts for the doctor on the calendar day
// of date. A fully booked day is an empty list, not an error; only dates
// outside the booking window are ErrInvalidDate.
func (s *Service) OpenSlots(ctx context.Context, doctorID string, date time.Time) ([]time.Time, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.open_slots")
	defer span.End()
	span.SetAttributes(attribute.String("outreach.doctor_id", doctorID))

	day := s.dayStart(date)
	if err := s.checkWindow(day); err != nil {
		return nil, err
	}

	appts, err := s.store.ListActiveByDoctorBetween(ctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return Open(day, s.cfg.Location, appts), nil
}

// BookRequest describes one appointment to create.
type BookRequest struct {
	PatientID       string
	DoctorID        string
	CampaignID      string
	StartsAt        time.Time
	DurationMinutes int
	CreatedFrom     CreatedFrom
}

// Book validates the slot, re-derives availability, and performs the single
// conditional write that makes the booking. When two requests race for
// overlapping slots, exactly one returns ErrSlotConflict and writes nothing.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("outreach.doctor_id", req.DoctorID),
		attribute.String("outreach.slot", req.StartsAt.Format(time.RFC3339)),
	)

	if req.DurationMinutes <= 0 {
		req.DurationMinutes = int(s.cfg.DefaultDuration / time.Minute)
	}
	if req.CreatedFrom == "" {
		req.CreatedFrom = CreatedFromAgent
	}

	start := req.StartsAt.In(s.cfg.Location)
	if !OnGrid(start, s.cfg.Location) {
		return nil, ErrInvalidDate
	}
	if !start.After(s.now()) {
		return nil, ErrInvalidDate
	}
	if err := s.checkWindow(s.dayStart(start)); err != nil {
		return nil, err
	}

	open, err := s.OpenSlots(ctx, req.DoctorID, start)
	if err != nil {
		return nil, err
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute
	covered := SlotsCovering(start, duration)
	for _, slot := range covered {
		if !OnGrid(slot, s.cfg.Location) {
			continue
		}
		if !contains(open, slot) {
			return nil, ErrSlotUnavailable
		}
	}

	appt := &Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		CampaignID:      req.CampaignID,
		StartsAt:        start,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusBooked,
		CreatedFrom:     req.CreatedFrom,
	}
	if err := s.store.CreateWithLocks(ctx, appt, covered); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID, "doctor_id", appt.DoctorID,
		"starts_at", appt.StartsAt, "created_from", appt.CreatedFrom)
	s.recordBookingEvent(ctx, appt, fmt.Sprintf("Appointment booked for %s with doctor %s.",
		appt.StartsAt.In(s.cfg.Location).Format("Monday, January 2 at 3:04 PM"), appt.DoctorID), "booking_confirmed")
	return appt, nil
}

// Cancel frees the appointment's slots. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.cancel")
	defer span.End()

	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return appt, nil
	}
	if err := s.store.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		span.RecordError(err)
		return nil, err
	}
	appt.Status = StatusCancelled

	s.logger.Info("appointment cancelled", "appointment_id", id, "doctor_id", appt.DoctorID)
	s.recordBookingEvent(ctx, appt, fmt.Sprintf("Appointment for %s cancelled.",
		appt.StartsAt.In(s.cfg.Location).Format("Monday, January 2 at 3:04 PM")), "booking_cancelled")
	return appt, nil
}

// AppointmentForCampaign returns the booked appointment a campaign created,
// or ErrNotFound when the campaign never booked one.
func (s *Service) AppointmentForCampaign(ctx context.Context, campaignID string) (*Appointment, error) {
	return s.store.GetByCampaign(ctx, campaignID)
}

// Complete marks a kept appointment.
func (s *Service) Complete(ctx context.Context, id string) (*Appointment, error) {
	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCompleted {
		return appt, nil
	}
	if err := s.store.UpdateStatus(ctx, id, StatusCompleted); err != nil {
		return nil, err
	}
	appt.Status = StatusCompleted
	return appt, nil
}

// NextOpenSlots walks days forward from `from` and collects up to max open
// slots strictly after `from`. Used to offer times in outreach replies.
func (s *Service) NextOpenSlots(ctx context.Context, doctorID string, from time.Time, max int) ([]time.Time, error) {
	if max <= 0 {
		max = 3
	}
	from = from.In(s.cfg.Location)

	var out []time.Time
	for d := 0; d < s.cfg.HorizonDays && len(out) < max; d++ {
		day := s.dayStart(from).AddDate(0, 0, d)
		open, err := s.OpenSlots(ctx, doctorID, day)
		if err != nil {
			return nil, err
		}
		for _, slot := range open {
			if slot.After(from) {
				out = append(out, slot)
				if len(out) == max {
					break
				}
			}
		}
	}
	return out, nil
}

func (s *Service) recordBookingEvent(ctx context.Context, appt *Appointment, body, intent string) {
	if s.appender == nil || appt.CampaignID == "" {
		return
	}
	entry := &interactions.Entry{
		CampaignID: appt.CampaignID,
		Direction:  interactions.DirectionOutgoing,
		Channel:    "system",
		Body:       body,
		Intent:     intent,
	}
	if err := s.appender.Append(ctx, entry); err != nil {
		s.logger.Error("failed to record booking interaction", "campaign_id", appt.CampaignID, "error", err)
	}
}

// checkWindow rejects days before today or past the booking horizon.
func (s *Service) checkWindow(day time.Time) error {
	today := s.dayStart(s.now())
	if day.Before(today) {
		return ErrInvalidDate
	}
	if day.After(today.AddDate(0, 0, s.cfg.HorizonDays)) {
		return ErrInvalidDate
	}
	return nil
}

func (s *Service) dayStart(t time.Time) time.Time {
	t = t.In(s.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func contains(slots []time.Time, want time.Time) bool {
	for _, s := range slots {
		if s.Equal(want) {
			return true
		}
	}
	return false
}
