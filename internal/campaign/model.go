package campaign

import (
	"time"
)

// Type identifies why the clinic is reaching out to a patient.
type Type string

const (
	TypeRecovery            Type = "RECOVERY"
	TypeRecall              Type = "RECALL"
	TypeAppointmentReminder Type = "APPOINTMENT_REMINDER"
)

// Valid reports whether t is a known campaign type.
func (t Type) Valid() bool {
	switch t {
	case TypeRecovery, TypeRecall, TypeAppointmentReminder:
		return true
	}
	return false
}

// State is the campaign lifecycle position. The set is closed: states are
// only produced by Next, never assembled from strings at call sites.
type State string

const (
	StateInitiated          State = "INITIATED"
	StateAttemptingRecovery State = "ATTEMPTING_RECOVERY"
	StateAttemptingRecall   State = "ATTEMPTING_RECALL"
	StateEngaged            State = "ENGAGED"
	StateAwaitingReply      State = "AWAITING_REPLY"
	StateBookingInProgress  State = "BOOKING_IN_PROGRESS"
	StateBooked             State = "BOOKED"
	StateRecovered          State = "RECOVERED"
	StateFailedMaxAttempts  State = "FAILED_MAX_ATTEMPTS"
	StateDeclined           State = "DECLINED"
	StateHandedOff          State = "HANDED_OFF"
)

// Terminal reports whether the state absorbs all further triggers and replies.
func (s State) Terminal() bool {
	switch s {
	case StateBooked, StateRecovered, StateFailedMaxAttempts, StateDeclined, StateHandedOff:
		return true
	}
	return false
}

// Channel is the outbound medium a campaign speaks over.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelVoice Channel = "voice"
)

// FollowUp tracks the outreach attempt budget and schedule for a campaign.
type FollowUp struct {
	AttemptsMade  int        `json:"attempts_made"`
	MaxAttempts   int        `json:"max_attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
}

// Campaign is one outreach effort toward one patient.
type Campaign struct {
	ID                string   `json:"id"`
	PatientID         string   `json:"patient_id"`
	Type              Type     `json:"campaign_type"`
	State             State    `json:"state"`
	Channel           Channel  `json:"channel"`
	DoctorID          string   `json:"doctor_id,omitempty"`
	Service           string   `json:"service_name,omitempty"`
	ThreadID          string   `json:"thread_id,omitempty"`
	EngagementSummary string   `json:"engagement_summary,omitempty"`
	FollowUp          FollowUp `json:"follow_up"`

	// OfferedSlots are the appointment times last proposed to the patient,
	// in the order they were numbered in the message.
	OfferedSlots []time.Time `json:"offered_slots,omitempty"`

	// Version guards every read-modify-write; see Store.Update.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reply is an inbound patient message after correlation fields are extracted.
type Reply struct {
	CampaignID string    `json:"campaign_id,omitempty"`
	ThreadID   string    `json:"thread_id,omitempty"`
	From       string    `json:"from,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	Channel    Channel   `json:"channel,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
