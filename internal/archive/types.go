package archive

import "time"

// TranscriptRecord is the top-level structure archived to S3 when a campaign
// reaches a terminal state.
type TranscriptRecord struct {
	Version           string    `json:"version"` // "1.0"
	CampaignID        string    `json:"campaign_id"`
	PatientID         string    `json:"patient_id"`
	EmailHash         string    `json:"email_hash"` // sha256 of patient email
	CampaignType      string    `json:"campaign_type"`
	FinalState        string    `json:"final_state"`
	Channel           string    `json:"channel"`
	EngagementSummary string    `json:"engagement_summary,omitempty"`
	ArchivedAt        time.Time `json:"archived_at"`
	MessageCount      int       `json:"message_count"`
	Messages          []Message `json:"messages"`
}

// Message is a single transcript turn.
type Message struct {
	Seq       int64     `json:"seq"`
	Direction string    `json:"direction"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Intent    string    `json:"intent,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	CampaignID   string `json:"campaign_id"`
	S3Key        string `json:"s3_key"`
	CampaignType string `json:"campaign_type"`
	FinalState   string `json:"final_state"`
	ArchivedAt   string `json:"archived_at"`
	MessageCount int    `json:"message_count"`
}
