package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/outreach/internal/llm"
	"github.com/brightsmile/outreach/pkg/logging"
)

const outreachSystemPrompt = "You are a helpful, concise healthcare assistant. Write short, friendly outreach emails " +
	"with a clear CTA to reply. Avoid being pushy; respect previous context. " +
	"Always sign off with 'Best regards,\nBright Smile Clinic Team' only. Do not include any contact information."

const reminderSystemPrompt = "You write polite, clear appointment reminder emails for healthcare clinics. " +
	"Use the EXACT date/time string provided below verbatim in the email body. " +
	"Do NOT use placeholders like [insert date] or [insert time]. Keep it under 120 words. " +
	"Always sign off with 'Best regards,\nBright Smile Clinic Team' only. Do not include any contact information."

// Writer drafts outreach copy with a model. A Writer built without a client
// serves the static templates, so campaigns keep moving when no model is
// configured.
type Writer struct {
	client llm.Client
	model  string
	loc    *time.Location
	logger *logging.Logger
}

// NewWriter builds a Writer. client may be nil to run template-only.
func NewWriter(client llm.Client, model string, loc *time.Location, logger *logging.Logger) *Writer {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Writer{client: client, model: model, loc: loc, logger: logger}
}

// Draft produces the subject and body for the next outreach send. Model
// failures fall back to the static template; a draft never fails outright.
func (w *Writer) Draft(ctx context.Context, c *Campaign, patientName string, appointmentAt *time.Time) (subject, body string) {
	subject = OutreachSubject(c.Type, c.Service)

	if w.client != nil {
		drafted, err := w.draftBody(ctx, c, patientName, appointmentAt)
		if err != nil {
			w.logger.Warn("outreach copy model failed, using template",
				"campaign_id", c.ID,
				"campaign_type", string(c.Type),
				"error", err)
		} else if strings.TrimSpace(drafted) != "" {
			return subject, strings.TrimSpace(drafted)
		}
	}

	return subject, OutreachFallbackBody(c.Type, patientName, c.Service, appointmentAt, w.loc)
}

func (w *Writer) draftBody(ctx context.Context, c *Campaign, patientName string, appointmentAt *time.Time) (string, error) {
	if c.Type == TypeAppointmentReminder {
		when := ""
		if appointmentAt != nil {
			when = appointmentAt.In(w.loc).Format(reminderDisplayLayout)
		}
		resp, err := w.client.Complete(ctx, llm.Request{
			Model:  w.model,
			System: []string{reminderSystemPrompt},
			Messages: []llm.ChatMessage{{
				Role: llm.RoleUser,
				Content: fmt.Sprintf(
					"Patient name: %s\nAppointment date/time (string): %s\n\nTask: Draft a friendly reminder including that exact date/time string, and invite them to reply if they need to reschedule.",
					displayName(patientName), when),
			}},
			MaxTokens:   200,
			Temperature: 0.1,
		})
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}

	var contextParts []string
	if c.EngagementSummary != "" {
		contextParts = append(contextParts, "Previous engagement summary (with dated history):\n"+c.EngagementSummary)
	}
	if c.Service != "" {
		contextParts = append(contextParts, "Service: "+c.Service)
	}

	resp, err := w.client.Complete(ctx, llm.Request{
		Model:  w.model,
		System: []string{outreachSystemPrompt},
		Messages: []llm.ChatMessage{{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(
				"Patient name: %s\nCampaign type: %s\nAttempts made so far: %d\n%s\n\nTask: Draft an email to re-engage this patient. Keep under 130 words.",
				displayName(patientName), c.Type, c.FollowUp.AttemptsMade, strings.Join(contextParts, "\n\n")),
		}},
		MaxTokens:   240,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
