package inbound

import (
	"time"

	"github.com/brightsmile/outreach/internal/campaign"
)

// Envelope is the wire form of one inbound reply as the webhook enqueues it.
// MessageID is the provider's message id (the email Message-ID header) and
// is what dedupe keys on; provider retries reuse it, so they collapse to one
// processed reply.
type Envelope struct {
	MessageID  string    `json:"message_id,omitempty"`
	CampaignID string    `json:"campaign_id,omitempty"`
	ThreadID   string    `json:"thread_id,omitempty"`
	From       string    `json:"from,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	Channel    string    `json:"channel,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// Reply converts the envelope into the engine's reply form.
func (e Envelope) Reply() campaign.Reply {
	return campaign.Reply{
		CampaignID: e.CampaignID,
		ThreadID:   e.ThreadID,
		From:       e.From,
		Subject:    e.Subject,
		Body:       e.Body,
		Channel:    campaign.Channel(e.Channel),
		ReceivedAt: e.ReceivedAt,
	}
}
