package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightsmile/outreach/internal/archive"
	"github.com/brightsmile/outreach/internal/intent"
	"github.com/brightsmile/outreach/internal/interactions"
	"github.com/brightsmile/outreach/internal/knowledge"
	"github.com/brightsmile/outreach/internal/notify"
	"github.com/brightsmile/outreach/internal/observability/metrics"
	"github.com/brightsmile/outreach/internal/patients"
	"github.com/brightsmile/outreach/internal/scheduling"
	"github.com/brightsmile/outreach/pkg/logging"
)

var campaignTracer = otel.Tracer("outreach.internal.campaign")

const (
	defaultMaxAttempts   = 3
	defaultFollowUpEvery = 5 * 24 * time.Hour
	defaultOfferCount    = 3
	defaultDoctorID      = "primary"
	dueBatchSize         = 100

	// Replies shorten the loop: a patient mid-booking gets nudged after a
	// day, an answered question after three.
	bookingFollowUpDelay  = 24 * time.Hour
	answeredFollowUpDelay = 3 * 24 * time.Hour
)

// CampaignStore is the persistence the engine drives. *Store implements it.
type CampaignStore interface {
	Create(ctx context.Context, c *Campaign) error
	Get(ctx context.Context, id string) (*Campaign, error)
	GetByThread(ctx context.Context, threadID string) (*Campaign, error)
	GetLatestByPatient(ctx context.Context, patientID string) (*Campaign, error)
	Update(ctx context.Context, c *Campaign) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]Campaign, error)
}

// InteractionLog records and replays the campaign timeline.
type InteractionLog interface {
	Append(ctx context.Context, e *interactions.Entry) error
	History(ctx context.Context, campaignID string, limit int) ([]interactions.Entry, error)
}

// PatientDirectory resolves patients for addressing and reply correlation.
type PatientDirectory interface {
	Get(ctx context.Context, id string) (*patients.Patient, error)
	GetByEmail(ctx context.Context, email string) (*patients.Patient, error)
}

// Booker is the slice of the scheduling service the engine needs.
// *scheduling.Service implements it.
type Booker interface {
	Book(ctx context.Context, req scheduling.BookRequest) (*scheduling.Appointment, error)
	NextOpenSlots(ctx context.Context, doctorID string, from time.Time, max int) ([]time.Time, error)
	AppointmentForCampaign(ctx context.Context, campaignID string) (*scheduling.Appointment, error)
}

// Archiver receives the transcript when a campaign closes. *archive.Store
// implements it.
type Archiver interface {
	Enabled() bool
	ArchiveTranscript(ctx context.Context, record *archive.TranscriptRecord) error
}

// EngineConfig wires the engine's collaborators. Store, Patients, Log and
// Sender are required; the rest degrade gracefully when absent.
type EngineConfig struct {
	Store      CampaignStore
	Patients   PatientDirectory
	Log        InteractionLog
	Sender     notify.Sender
	Classifier intent.Classifier
	Answerer   knowledge.Answerer
	Scheduler  Booker
	Writer     *Writer
	Summarizer *Summarizer
	Archiver   Archiver
	Metrics    *metrics.OutreachMetrics
	Logger     *logging.Logger

	// Backoff spaces follow-up attempts; nil means every five days.
	Backoff Backoff
	// Location is the clinic timezone used in every patient-facing time.
	Location *time.Location

	DefaultDoctorID    string
	DefaultMaxAttempts int
	OfferCount         int
	SweepBatchSize     int
}

// Engine runs the outreach lifecycle: it creates campaigns, sends scheduled
// follow-ups, routes replies and books appointments.
type Engine struct {
	cfg EngineConfig
	now func() time.Time
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Store == nil {
		panic("campaign: store required")
	}
	if cfg.Patients == nil {
		panic("campaign: patient directory required")
	}
	if cfg.Log == nil {
		panic("campaign: interaction log required")
	}
	if cfg.Sender == nil {
		panic("campaign: sender required")
	}
	if cfg.Classifier == nil {
		cfg.Classifier = &intent.KeywordClassifier{Location: cfg.Location}
	}
	if cfg.Writer == nil {
		cfg.Writer = NewWriter(nil, "", cfg.Location, cfg.Logger)
	}
	if cfg.Summarizer == nil {
		cfg.Summarizer = NewSummarizer(nil, "")
	}
	if cfg.Backoff == nil {
		cfg.Backoff = ConstantBackoff(defaultFollowUpEvery)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.DefaultDoctorID == "" {
		cfg.DefaultDoctorID = defaultDoctorID
	}
	if cfg.DefaultMaxAttempts <= 0 {
		cfg.DefaultMaxAttempts = defaultMaxAttempts
	}
	if cfg.OfferCount <= 0 {
		cfg.OfferCount = defaultOfferCount
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = dueBatchSize
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// NewCampaignInput describes a campaign to start.
type NewCampaignInput struct {
	PatientID   string
	Type        Type
	Channel     Channel
	DoctorID    string
	Service     string
	MaxAttempts int
	// FirstAttemptAt pre-schedules the first send; reminders set it to the
	// day before the appointment. Zero means due immediately.
	FirstAttemptAt *time.Time
}

// CreateCampaign validates the input and persists a new INITIATED campaign.
// Nothing is sent until a trigger or the follow-up sweep picks it up.
func (e *Engine) CreateCampaign(ctx context.Context, in NewCampaignInput) (*Campaign, error) {
	ctx, span := campaignTracer.Start(ctx, "campaign.create")
	defer span.End()

	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown campaign type %q", ErrInvalidInput, in.Type)
	}
	if in.PatientID == "" {
		return nil, fmt.Errorf("%w: patient_id required", ErrInvalidInput)
	}
	p, err := e.cfg.Patients.Get(ctx, in.PatientID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if p == nil {
		return nil, ErrPatientNotFound
	}

	maxAttempts := in.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = e.cfg.DefaultMaxAttempts
	}
	if in.Type == TypeAppointmentReminder {
		// A reminder is sent once.
		maxAttempts = 1
	}

	c := &Campaign{
		PatientID: in.PatientID,
		Type:      in.Type,
		State:     StateInitiated,
		Channel:   in.Channel,
		DoctorID:  in.DoctorID,
		Service:   in.Service,
		FollowUp: FollowUp{
			MaxAttempts:   maxAttempts,
			NextAttemptAt: in.FirstAttemptAt,
		},
	}
	if err := e.cfg.Store.Create(ctx, c); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("outreach.campaign_id", c.ID))
	e.cfg.Logger.Info("campaign created",
		"campaign_id", c.ID, "patient_id", c.PatientID,
		"campaign_type", string(c.Type), "max_attempts", maxAttempts)
	return c, nil
}

// GetCampaign loads one campaign.
func (e *Engine) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	return e.cfg.Store.Get(ctx, id)
}

// LatestForPatient loads the patient's most recently created campaign.
func (e *Engine) LatestForPatient(ctx context.Context, patientID string) (*Campaign, error) {
	return e.cfg.Store.GetLatestByPatient(ctx, patientID)
}

// OutreachStatus names what a trigger did with the campaign.
type OutreachStatus string

const (
	// OutreachSent means a message went out and the attempt was recorded.
	OutreachSent OutreachStatus = "sent"
	// OutreachNotDue means the follow-up timer has not fired yet.
	OutreachNotDue OutreachStatus = "not_due"
	// OutreachTerminal means the campaign was already closed.
	OutreachTerminal OutreachStatus = "terminal"
	// OutreachMaxAttempts means the attempt budget was spent and the
	// campaign closed as FAILED_MAX_ATTEMPTS.
	OutreachMaxAttempts OutreachStatus = "max_attempts"
)

// OutreachResult reports a trigger's outcome alongside the campaign as the
// trigger left it. NextAttemptAt echoes when the timer fires next, when one
// is scheduled.
type OutreachResult struct {
	Status        OutreachStatus `json:"status"`
	Campaign      *Campaign      `json:"campaign"`
	NextAttemptAt *time.Time     `json:"next_attempt_at,omitempty"`
}

// TriggerOutreach runs one outreach attempt for the campaign right now.
// Terminal campaigns are an idempotent no-op, as are campaigns whose timer
// has not fired. A campaign whose attempt budget is spent moves to
// FAILED_MAX_ATTEMPTS without sending or logging anything; the ceiling
// outranks the timer, so a spent campaign closes even when nothing is due.
// A delivery failure leaves the campaign exactly as it was.
func (e *Engine) TriggerOutreach(ctx context.Context, campaignID string) (*OutreachResult, error) {
	ctx, span := campaignTracer.Start(ctx, "campaign.trigger_outreach")
	defer span.End()
	span.SetAttributes(attribute.String("outreach.campaign_id", campaignID))

	c, err := e.cfg.Store.Get(ctx, campaignID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if c.State.Terminal() {
		e.cfg.Logger.Info("trigger ignored, campaign already closed",
			"campaign_id", c.ID, "state", string(c.State))
		e.cfg.Metrics.ObserveAttempt(string(c.Type), "skipped_terminal")
		return &OutreachResult{Status: OutreachTerminal, Campaign: c}, nil
	}

	if c.FollowUp.Exhausted() {
		next, err := Next(c.Type, c.State, EventAttemptsExhausted)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		c.State = next
		c.FollowUp.NextAttemptAt = nil
		c.OfferedSlots = nil
		if err := e.cfg.Store.Update(ctx, c); err != nil {
			span.RecordError(err)
			return nil, err
		}
		e.cfg.Logger.Info("campaign failed, attempt budget spent",
			"campaign_id", c.ID, "attempts_made", c.FollowUp.AttemptsMade)
		e.cfg.Metrics.ObserveAttempt(string(c.Type), "exhausted")
		e.archiveTranscript(ctx, c)
		return &OutreachResult{Status: OutreachMaxAttempts, Campaign: c}, nil
	}

	if !c.FollowUp.Due(e.now()) {
		e.cfg.Logger.Info("trigger ignored, follow-up not due",
			"campaign_id", c.ID, "next_attempt_at", c.FollowUp.NextAttemptAt)
		e.cfg.Metrics.ObserveAttempt(string(c.Type), "not_due")
		return &OutreachResult{
			Status:        OutreachNotDue,
			Campaign:      c,
			NextAttemptAt: c.FollowUp.NextAttemptAt,
		}, nil
	}

	p, err := e.cfg.Patients.Get(ctx, c.PatientID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if p == nil {
		return nil, ErrPatientNotFound
	}

	var appointmentAt *time.Time
	if c.Type == TypeAppointmentReminder && e.cfg.Scheduler != nil {
		if appt, err := e.cfg.Scheduler.AppointmentForCampaign(ctx, c.ID); err == nil {
			appointmentAt = &appt.StartsAt
		} else if !errors.Is(err, scheduling.ErrNotFound) {
			e.cfg.Logger.Warn("reminder appointment lookup failed", "campaign_id", c.ID, "error", err)
		}
	}

	subject, body := e.cfg.Writer.Draft(ctx, c, p.Name, appointmentAt)
	if err := e.send(ctx, c, p, subject, body); err != nil {
		span.RecordError(err)
		e.cfg.Metrics.ObserveAttempt(string(c.Type), "send_failed")
		return nil, fmt.Errorf("campaign: outreach send: %w", err)
	}

	e.appendEntry(ctx, c.ID, interactions.DirectionOutgoing, string(c.Channel), subject, body, "outreach", "")

	next, err := Next(c.Type, c.State, EventOutreachSent)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.State = next
	c.FollowUp = recordAttempt(c.FollowUp, e.now(), e.backoffFor(c.Type))
	e.refreshSummary(ctx, c)
	if err := e.cfg.Store.Update(ctx, c); err != nil {
		span.RecordError(err)
		return nil, err
	}

	e.cfg.Logger.Info("outreach sent",
		"campaign_id", c.ID, "campaign_type", string(c.Type),
		"attempt", c.FollowUp.AttemptsMade, "state", string(c.State), "subject", subject)
	e.cfg.Metrics.ObserveAttempt(string(c.Type), "sent")
	return &OutreachResult{
		Status:        OutreachSent,
		Campaign:      c,
		NextAttemptAt: c.FollowUp.NextAttemptAt,
	}, nil
}

// RunDue sweeps every campaign whose timer has fired and triggers it. One
// campaign failing does not stop the batch. Returns how many were processed.
func (e *Engine) RunDue(ctx context.Context) (int, error) {
	ctx, span := campaignTracer.Start(ctx, "campaign.run_due")
	defer span.End()

	due, err := e.cfg.Store.ListDue(ctx, e.now(), e.cfg.SweepBatchSize)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	processed := 0
	for i := range due {
		if _, err := e.TriggerOutreach(ctx, due[i].ID); err != nil {
			if errors.Is(err, ErrConcurrentModification) {
				// Another worker handled it first.
				continue
			}
			e.cfg.Logger.Error("outreach attempt failed",
				"campaign_id", due[i].ID, "error", err)
			continue
		}
		processed++
	}

	span.SetAttributes(attribute.Int("outreach.due_processed", processed))
	if len(due) > 0 {
		e.cfg.Logger.Info("follow-up sweep finished", "due", len(due), "processed", processed)
	}
	return processed, nil
}

// ReceiveReply routes one inbound patient message: resolve the campaign,
// classify the reply, answer or act on it, and move the state machine.
func (e *Engine) ReceiveReply(ctx context.Context, reply Reply) (*Campaign, error) {
	ctx, span := campaignTracer.Start(ctx, "campaign.receive_reply")
	defer span.End()
	started := e.now()

	c, err := e.resolveCampaign(ctx, reply)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("outreach.campaign_id", c.ID))

	if c.State.Terminal() {
		e.cfg.Logger.Info("reply on closed campaign dropped",
			"campaign_id", c.ID, "state", string(c.State))
		return c, nil
	}
	if !replyable(c.State) {
		e.cfg.Logger.Warn("reply before first outreach dropped",
			"campaign_id", c.ID, "state", string(c.State))
		return c, nil
	}

	if c.ThreadID == "" && reply.ThreadID != "" {
		c.ThreadID = reply.ThreadID
	}

	cls, err := e.cfg.Classifier.Classify(ctx, reply.Body)
	if err != nil {
		// An unavailable classifier must not stall the conversation; the
		// patient gets the clarification path.
		e.cfg.Logger.Warn("reply classification unavailable",
			"campaign_id", c.ID, "error", err)
		cls = intent.Classification{Intent: intent.IrrelevantConfused, Sentiment: "neutral"}
	}
	span.SetAttributes(attribute.String("outreach.intent", string(cls.Intent)))

	e.appendEntry(ctx, c.ID, interactions.DirectionIncoming, string(channelOf(reply)), reply.Subject, reply.Body, string(cls.Intent), cls.Sentiment)

	p, err := e.cfg.Patients.Get(ctx, c.PatientID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if p == nil {
		return nil, ErrPatientNotFound
	}

	// A campaign mid-booking first checks whether the reply picks one of
	// the slots we offered.
	if c.State == StateBookingInProgress {
		if picked, ok := DetectSlotSelection(reply.Body, c.OfferedSlots, e.cfg.Location); ok {
			c, err = e.completeBooking(ctx, c, p, reply, picked)
			e.observeReply(cls.Intent, started)
			return c, err
		}
	}

	var answer string
	var answerFound bool
	if cls.Intent == intent.Question && e.cfg.Answerer != nil {
		answer, answerFound, err = e.cfg.Answerer.Answer(ctx, reply.Body)
		if err != nil {
			e.cfg.Logger.Warn("knowledge base lookup failed", "campaign_id", c.ID, "error", err)
			answer, answerFound = "", false
		}
	}

	disp := Route(cls, answer, answerFound)

	// A booking request naming an open time books it directly instead of
	// bouncing the patient through another offer round.
	if disp.Event == EventBookingRequested && disp.RequestedTime != nil && e.cfg.Scheduler != nil {
		if appt, err := e.tryBook(ctx, c, *disp.RequestedTime); err == nil {
			mid, terr := Next(c.Type, c.State, EventBookingRequested)
			if terr != nil {
				span.RecordError(terr)
				return nil, terr
			}
			c.State = mid
			c, err = e.finishBooked(ctx, c, p, reply, appt)
			e.observeReply(cls.Intent, started)
			return c, err
		} else if !retryableBookingErr(err) {
			span.RecordError(err)
			return nil, err
		}
	}

	next, err := Next(c.Type, c.State, disp.Event)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.State = next

	subject := ReplySubject(disp.ReplyKind, reply.Subject)
	var body string
	switch disp.ReplyKind {
	case ReplySlotOffer:
		body = e.buildSlotOffer(ctx, c, p, disp.RequestedTime)
		c.FollowUp = rescheduleAfterReply(c.FollowUp, e.now(), bookingFollowUpDelay)
	case ReplyDeclined:
		body = DeclinedBody(p.Name)
	case ReplyAnswer:
		body = AnswerBody(p.Name, disp.Answer)
		c.FollowUp = rescheduleAfterReply(c.FollowUp, e.now(), answeredFollowUpDelay)
	case ReplyHandoff:
		body = HandoffBody(p.Name)
	default:
		body = DisambiguationBody(p.Name)
	}

	if err := e.send(ctx, c, p, subject, body); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("campaign: reply send: %w", err)
	}
	e.appendEntry(ctx, c.ID, interactions.DirectionOutgoing, string(c.Channel), subject, body, string(disp.ReplyKind), "")

	if c.State.Terminal() {
		c.FollowUp.NextAttemptAt = nil
		c.OfferedSlots = nil
	}
	e.refreshSummary(ctx, c)
	if err := e.cfg.Store.Update(ctx, c); err != nil {
		span.RecordError(err)
		return nil, err
	}

	e.cfg.Logger.Info("reply handled",
		"campaign_id", c.ID, "intent", string(cls.Intent),
		"reply_kind", string(disp.ReplyKind), "state", string(c.State))
	if c.State.Terminal() {
		e.archiveTranscript(ctx, c)
	}
	e.observeReply(cls.Intent, started)
	return c, nil
}

// completeBooking books the slot the patient picked from an offer.
func (e *Engine) completeBooking(ctx context.Context, c *Campaign, p *patients.Patient, reply Reply, picked time.Time) (*Campaign, error) {
	appt, err := e.tryBook(ctx, c, picked)
	if err != nil {
		if !retryableBookingErr(err) {
			return nil, err
		}
		// Somebody took the slot between offer and pick. Re-derive and
		// offer the closest alternatives.
		return e.reofferSlots(ctx, c, p, reply, picked)
	}
	return e.finishBooked(ctx, c, p, reply, appt)
}

// finishBooked sends the confirmation and closes the campaign as succeeded.
func (e *Engine) finishBooked(ctx context.Context, c *Campaign, p *patients.Patient, reply Reply, appt *scheduling.Appointment) (*Campaign, error) {
	subject := ReplySubject(ReplyBookingConfirmed, reply.Subject)
	body := BookingConfirmedBody(p.Name, appt.StartsAt, e.cfg.Location)
	if err := e.send(ctx, c, p, subject, body); err != nil {
		// The appointment exists; the campaign stays mid-booking so the
		// confirmation can be retried rather than rebooked.
		e.cfg.Logger.Error("booking confirmation send failed",
			"campaign_id", c.ID, "appointment_id", appt.ID, "error", err)
		return nil, fmt.Errorf("campaign: confirmation send: %w", err)
	}
	e.appendEntry(ctx, c.ID, interactions.DirectionOutgoing, string(c.Channel), subject, body, string(ReplyBookingConfirmed), "")

	next, err := Next(c.Type, c.State, EventBookingSucceeded)
	if err != nil {
		return nil, err
	}
	c.State = next
	c.FollowUp.NextAttemptAt = nil
	c.OfferedSlots = nil
	e.refreshSummary(ctx, c)
	if err := e.cfg.Store.Update(ctx, c); err != nil {
		return nil, err
	}

	e.cfg.Logger.Info("campaign booked",
		"campaign_id", c.ID, "appointment_id", appt.ID,
		"starts_at", appt.StartsAt, "state", string(c.State))
	e.cfg.Metrics.ObserveBooking("booked")
	e.archiveTranscript(ctx, c)
	return c, nil
}

// reofferSlots handles a pick that lost its slot: fresh availability, new
// numbered offer, campaign stays mid-booking.
func (e *Engine) reofferSlots(ctx context.Context, c *Campaign, p *patients.Patient, reply Reply, near time.Time) (*Campaign, error) {
	subject := ReplySubject(ReplySlotOffer, reply.Subject)
	body := e.buildSlotOfferNear(ctx, c, p, near, false)
	if err := e.send(ctx, c, p, subject, body); err != nil {
		return nil, fmt.Errorf("campaign: re-offer send: %w", err)
	}
	e.appendEntry(ctx, c.ID, interactions.DirectionOutgoing, string(c.Channel), subject, body, string(ReplySlotOffer), "")

	c.FollowUp = rescheduleAfterReply(c.FollowUp, e.now(), bookingFollowUpDelay)
	e.refreshSummary(ctx, c)
	if err := e.cfg.Store.Update(ctx, c); err != nil {
		return nil, err
	}
	e.cfg.Logger.Info("slot taken, alternatives offered", "campaign_id", c.ID)
	return c, nil
}

// buildSlotOffer derives availability and mutates c.OfferedSlots. requested
// anchors the search when the patient named a time.
func (e *Engine) buildSlotOffer(ctx context.Context, c *Campaign, p *patients.Patient, requested *time.Time) string {
	exact := requested == nil
	from := e.now()
	if requested != nil {
		from = *requested
	}
	return e.buildSlotOfferAt(ctx, c, p, from, exact)
}

func (e *Engine) buildSlotOfferNear(ctx context.Context, c *Campaign, p *patients.Patient, near time.Time, exact bool) string {
	return e.buildSlotOfferAt(ctx, c, p, near, exact)
}

func (e *Engine) buildSlotOfferAt(ctx context.Context, c *Campaign, p *patients.Patient, from time.Time, exact bool) string {
	var slots []time.Time
	if e.cfg.Scheduler != nil {
		var err error
		slots, err = e.cfg.Scheduler.NextOpenSlots(ctx, e.doctorFor(c), from, e.cfg.OfferCount)
		if err != nil {
			// A requested time outside the window falls back to the
			// earliest availability from now.
			slots, err = e.cfg.Scheduler.NextOpenSlots(ctx, e.doctorFor(c), e.now(), e.cfg.OfferCount)
			if err != nil {
				e.cfg.Logger.Error("availability lookup failed", "campaign_id", c.ID, "error", err)
				slots = nil
			}
		}
	}
	c.OfferedSlots = slots
	return SlotOfferBody(p.Name, c.Service, slots, exact, e.cfg.Location)
}

func (e *Engine) tryBook(ctx context.Context, c *Campaign, start time.Time) (*scheduling.Appointment, error) {
	appt, err := e.cfg.Scheduler.Book(ctx, scheduling.BookRequest{
		PatientID:  c.PatientID,
		DoctorID:   e.doctorFor(c),
		CampaignID: c.ID,
		StartsAt:   start,
	})
	switch {
	case err == nil:
	case errors.Is(err, scheduling.ErrSlotConflict):
		e.cfg.Metrics.ObserveBooking("slot_conflict")
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		e.cfg.Metrics.ObserveBooking("slot_unavailable")
	case errors.Is(err, scheduling.ErrInvalidDate):
		e.cfg.Metrics.ObserveBooking("invalid_date")
	}
	return appt, err
}

// retryableBookingErr reports whether a failed booking should turn into a
// fresh slot offer instead of an error.
func retryableBookingErr(err error) bool {
	return errors.Is(err, scheduling.ErrSlotUnavailable) ||
		errors.Is(err, scheduling.ErrSlotConflict) ||
		errors.Is(err, scheduling.ErrInvalidDate)
}

func (e *Engine) resolveCampaign(ctx context.Context, reply Reply) (*Campaign, error) {
	if reply.CampaignID != "" {
		return e.cfg.Store.Get(ctx, reply.CampaignID)
	}
	if reply.ThreadID != "" {
		c, err := e.cfg.Store.GetByThread(ctx, reply.ThreadID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if reply.From != "" {
		p, err := e.cfg.Patients.GetByEmail(ctx, reply.From)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return e.cfg.Store.GetLatestByPatient(ctx, p.ID)
		}
	}
	return nil, ErrNotFound
}

func (e *Engine) send(ctx context.Context, c *Campaign, p *patients.Patient, subject, body string) error {
	to := p.Email
	if c.Channel == ChannelVoice {
		to = p.Phone
	}
	return e.cfg.Sender.Send(ctx, notify.Message{
		Channel: notify.Channel(c.Channel),
		To:      to,
		ToName:  p.Name,
		Subject: subject,
		Body:    body,
	})
}

func (e *Engine) appendEntry(ctx context.Context, campaignID string, dir interactions.Direction, channel, subject, body, intentLabel, sentiment string) {
	entry := &interactions.Entry{
		CampaignID: campaignID,
		Direction:  dir,
		Channel:    channel,
		Subject:    subject,
		Body:       body,
		Intent:     intentLabel,
		Sentiment:  sentiment,
	}
	if err := e.cfg.Log.Append(ctx, entry); err != nil {
		e.cfg.Logger.Error("failed to record interaction",
			"campaign_id", campaignID, "direction", string(dir), "error", err)
	}
}

// refreshSummary recomputes the engagement summary from the full timeline.
// It mutates c; the caller persists.
func (e *Engine) refreshSummary(ctx context.Context, c *Campaign) {
	history, err := e.cfg.Log.History(ctx, c.ID, 0)
	if err != nil {
		e.cfg.Logger.Warn("summary history load failed", "campaign_id", c.ID, "error", err)
		return
	}
	text, err := e.cfg.Summarizer.Summarize(ctx, history)
	if err != nil {
		e.cfg.Logger.Warn("summary model failed, keeping fallback", "campaign_id", c.ID, "error", err)
	}
	if text != "" {
		c.EngagementSummary = text
	}
}

// archiveTranscript ships the closed campaign's transcript to the archive.
// Best effort: archive failures never fail the campaign operation.
func (e *Engine) archiveTranscript(ctx context.Context, c *Campaign) {
	if e.cfg.Archiver == nil || !e.cfg.Archiver.Enabled() {
		return
	}
	history, err := e.cfg.Log.History(ctx, c.ID, 0)
	if err != nil {
		e.cfg.Logger.Warn("transcript history load failed", "campaign_id", c.ID, "error", err)
		return
	}
	emailHash := ""
	if p, err := e.cfg.Patients.Get(ctx, c.PatientID); err == nil && p != nil {
		emailHash = archive.HashEmail(p.Email)
	}

	msgs := make([]archive.Message, 0, len(history))
	for _, h := range history {
		msgs = append(msgs, archive.Message{
			Seq:       h.Seq,
			Direction: string(h.Direction),
			Subject:   h.Subject,
			Body:      h.Body,
			Intent:    h.Intent,
			Sentiment: h.Sentiment,
			SentAt:    h.CreatedAt,
		})
	}
	archive.ScrubMessages(msgs)

	record := &archive.TranscriptRecord{
		CampaignID:        c.ID,
		PatientID:         c.PatientID,
		EmailHash:         emailHash,
		CampaignType:      string(c.Type),
		FinalState:        string(c.State),
		Channel:           string(c.Channel),
		EngagementSummary: c.EngagementSummary,
		ArchivedAt:        e.now().UTC(),
		Messages:          msgs,
	}
	if err := e.cfg.Archiver.ArchiveTranscript(ctx, record); err != nil {
		e.cfg.Logger.Warn("transcript archive failed", "campaign_id", c.ID, "error", err)
	}
}

func (e *Engine) observeReply(in intent.Intent, started time.Time) {
	e.cfg.Metrics.ObserveReply(string(in))
	e.cfg.Metrics.ObserveReplyLatency(string(in), e.now().Sub(started).Seconds())
}

func (e *Engine) backoffFor(t Type) Backoff {
	if t == TypeAppointmentReminder {
		// Reminders are one-shot; nothing to reschedule.
		return nil
	}
	return e.cfg.Backoff
}

func (e *Engine) doctorFor(c *Campaign) string {
	if c.DoctorID != "" {
		return c.DoctorID
	}
	return e.cfg.DefaultDoctorID
}

func channelOf(r Reply) Channel {
	if r.Channel != "" {
		return r.Channel
	}
	return ChannelEmail
}
