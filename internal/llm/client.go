package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a model conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request configures a single completion call.
type Request struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

// Response is the model's reply.
type Response struct {
	Text       string
	StopReason string
}

// Client completes chat requests. Implementations wrap a model provider.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
