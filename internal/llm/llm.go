// Package llm abstracts the language-model capability behind a small
// single-shot request/response interface.
package llm

import "context"

// Role identifies a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a completion request.
type Message struct {
	Role    Role
	Content string
}

// Request contains the parameters for one completion call.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Response is the result of one completion call.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Provider is a language-model backend. Complete blocks until the
// model returns; there is no streaming.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}
