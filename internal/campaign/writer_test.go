package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsmile/outreach/internal/llm"
)

type fakeLLM struct {
	resp llm.Response
	err  error
	reqs []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func TestWriterDraft_UsesModelCopy(t *testing.T) {
	client := &fakeLLM{resp: llm.Response{Text: "Hi Priya, we'd love to see you again.\n\nBest regards,\nBright Smile Clinic Team"}}
	w := NewWriter(client, "model-x", time.UTC, nil)

	c := &Campaign{ID: "camp-1", Type: TypeRecovery, Service: "Invisalign", EngagementSummary: "asked about pricing",
		FollowUp: FollowUp{AttemptsMade: 2, MaxAttempts: 3}}
	subject, body := w.Draft(context.Background(), c, "Priya", nil)

	assert.Equal(t, "Following up about Invisalign", subject)
	assert.Contains(t, body, "we'd love to see you again")

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.Equal(t, "model-x", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Patient name: Priya")
	assert.Contains(t, req.Messages[0].Content, "Attempts made so far: 2")
	assert.Contains(t, req.Messages[0].Content, "asked about pricing")
	assert.Contains(t, req.Messages[0].Content, "Service: Invisalign")
}

func TestWriterDraft_ModelFailureFallsBack(t *testing.T) {
	client := &fakeLLM{err: errors.New("throttled")}
	w := NewWriter(client, "model-x", time.UTC, nil)

	subject, body := w.Draft(context.Background(), &Campaign{Type: TypeRecall, Service: "a checkup"}, "Priya", nil)
	assert.Equal(t, "Following up about a checkup", subject)
	assert.Contains(t, body, "We wanted to follow up about a checkup")
	assert.Contains(t, body, "Best regards,\nBright Smile Clinic Team")
}

func TestWriterDraft_BlankModelOutputFallsBack(t *testing.T) {
	client := &fakeLLM{resp: llm.Response{Text: "   \n"}}
	w := NewWriter(client, "model-x", time.UTC, nil)

	_, body := w.Draft(context.Background(), &Campaign{Type: TypeRecovery}, "", nil)
	assert.Contains(t, body, "Hi there,")
}

func TestWriterDraft_NoClientIsTemplateOnly(t *testing.T) {
	w := NewWriter(nil, "", time.UTC, nil)

	subject, body := w.Draft(context.Background(), &Campaign{Type: TypeRecovery, Service: "veneers"}, "Priya", nil)
	assert.Equal(t, "Following up about veneers", subject)
	assert.Contains(t, body, "follow up about veneers")
}

func TestWriterDraft_ReminderCarriesExactTime(t *testing.T) {
	client := &fakeLLM{resp: llm.Response{Text: "Reminder: see you Tue, 12 May 2026 02:00 PM UTC."}}
	w := NewWriter(client, "model-x", time.UTC, nil)
	apptAt := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)

	subject, _ := w.Draft(context.Background(), &Campaign{Type: TypeAppointmentReminder}, "Priya", &apptAt)
	assert.Equal(t, "Appointment reminder", subject)

	require.Len(t, client.reqs, 1)
	assert.Contains(t, client.reqs[0].Messages[0].Content, "Tue, 12 May 2026 02:00 PM UTC")
	assert.Contains(t, client.reqs[0].System[0], "appointment reminder emails")
}
