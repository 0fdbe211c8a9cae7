package interactions

import "time"

// Direction distinguishes clinic-sent messages from patient replies.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Entry is one message in a campaign's append-only interaction log.
// Seq is assigned by the database and totally orders the log.
type Entry struct {
	Seq        int64     `json:"seq"`
	CampaignID string    `json:"campaign_id"`
	Direction  Direction `json:"direction"`
	Channel    string    `json:"channel"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	Intent     string    `json:"intent,omitempty"`
	Sentiment  string    `json:"sentiment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
