package patients

import "time"

// Type distinguishes patients with visit history from cold leads pulled in
// through marketing.
type Type string

const (
	TypeExisting Type = "EXISTING"
	TypeColdLead Type = "COLD_LEAD"
)

func (t Type) Valid() bool {
	return t == TypeExisting || t == TypeColdLead
}

type Patient struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Type       Type       `json:"patient_type"`
	Treatments []string   `json:"treatments"`
	LastVisit  *time.Time `json:"last_visit_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
