package scheduling

import "time"

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CreatedFrom records which surface created the appointment.
type CreatedFrom string

const (
	CreatedFromAgent CreatedFrom = "AI_AGENT"
	CreatedFromAdmin CreatedFrom = "MANUAL_ADMIN"
)

type Appointment struct {
	ID              string      `json:"id"`
	PatientID       string      `json:"patient_id"`
	DoctorID        string      `json:"doctor_id"`
	CampaignID      string      `json:"campaign_id,omitempty"`
	StartsAt        time.Time   `json:"starts_at"`
	DurationMinutes int         `json:"duration_minutes"`
	Status          Status      `json:"status"`
	CreatedFrom     CreatedFrom `json:"created_from"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// End returns the exclusive end of the appointment interval.
func (a Appointment) End() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}
