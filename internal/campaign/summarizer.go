package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/outreach/internal/interactions"
	"github.com/brightsmile/outreach/internal/llm"
)

const summaryFormatSpec = "Overall Summary-\n" +
	"<one-paragraph overall summary>\n\n" +
	"Chatwise Summary-\n\n" +
	"<timestamp iso>: <short summary of message 1>\n\n" +
	"<timestamp iso>: <short summary of message 2>\n\n" +
	"..."

// Summarizer condenses a campaign's interaction log into the engagement
// summary stored on the campaign and fed back into outreach drafting.
type Summarizer struct {
	client llm.Client
	model  string
}

// NewSummarizer builds a Summarizer. client may be nil; Summarize then
// returns the most recent history line, which keeps the summary honest
// without a model.
func NewSummarizer(client llm.Client, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// Summarize renders the history and asks the model for the two-part summary.
// With no history it returns the empty string.
func (s *Summarizer) Summarize(ctx context.Context, history []interactions.Entry) (string, error) {
	if len(history) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(history))
	for _, e := range history {
		lines = append(lines, fmt.Sprintf("%s | %s: %s", e.CreatedAt.UTC().Format(time.RFC3339), e.Direction, e.Body))
	}

	if s.client == nil {
		return lines[len(lines)-1], nil
	}

	prompt := fmt.Sprintf(
		"You are an analyst. Read the conversation history below (each line is 'ISO_TIMESTAMP | direction: content').\n"+
			"Produce a concise analytical summary in EXACTLY this format (no extra text):\n\n%s\n\nConversation History:\n%s",
		summaryFormatSpec, strings.Join(lines, "\n"))

	resp, err := s.client.Complete(ctx, llm.Request{
		Model:       s.model,
		System:      []string{"Return only the formatted summary text."},
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   500,
		Temperature: 0.2,
	})
	if err != nil {
		// The last line is a usable summary when the model is down.
		return lines[len(lines)-1], err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return lines[len(lines)-1], nil
	}
	return text, nil
}
