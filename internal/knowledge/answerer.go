package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/brightsmile/outreach/internal/llm"
	"github.com/brightsmile/outreach/pkg/logging"
)

const qaSystemPrompt = `You are a specialized AI assistant for the Bright Smile Clinic. Your task is to answer a patient's question based exclusively on the provided knowledge base.

RULES:

1. Read the user's [QUESTION] and carefully search the [KNOWLEDGE_BASE] text for the answer.
2. If you find a clear and direct answer, provide only that information.
3. If the answer is not found, you MUST respond with the single, exact string: NO_ANSWER.
4. Do not use external knowledge or make assumptions. Your knowledge is strictly limited to the text provided.`

// Answerer resolves a patient question against the knowledge base.
// found is false when the base does not cover the question.
type Answerer interface {
	Answer(ctx context.Context, question string) (answer string, found bool, err error)
}

// LLMAnswerer asks a language model to extract the answer from BaseText.
type LLMAnswerer struct {
	client llm.Client
	model  string
	logger *logging.Logger
}

var _ Answerer = (*LLMAnswerer)(nil)

func NewLLMAnswerer(client llm.Client, model string, logger *logging.Logger) *LLMAnswerer {
	if client == nil {
		panic("knowledge: nil llm client")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMAnswerer{client: client, model: model, logger: logger}
}

func (a *LLMAnswerer) Answer(ctx context.Context, question string) (string, bool, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", false, nil
	}

	prompt := fmt.Sprintf("[KNOWLEDGE_BASE]:\n\n%s\n\n[QUESTION]:\n\n%s", BaseText, question)
	resp, err := a.client.Complete(ctx, llm.Request{
		Model:       a.model,
		System:      []string{qaSystemPrompt},
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   512,
		Temperature: 0,
	})
	if err != nil {
		a.logger.Warn("knowledge base query failed, using keyword lookup", "error", err)
		return keywordLookup(question)
	}

	answer := strings.TrimSpace(resp.Text)
	if answer == "" || strings.EqualFold(answer, NoAnswer) {
		return "", false, nil
	}
	return answer, true, nil
}

// keywordLookup is the degraded path when no model is reachable. It covers
// only the most common question so handoff volume stays sane during outages.
func keywordLookup(question string) (string, bool, error) {
	lowered := strings.ToLower(question)
	if strings.Contains(lowered, "implant") {
		return "Dental implants are a permanent solution for missing teeth; they look, feel, and function like natural teeth.", true, nil
	}
	return "", false, nil
}
