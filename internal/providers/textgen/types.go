// Package textgen executes workflow text steps through an OpenAI-compatible
// chat completion API and normalizes results, token usage and failures into
// uniform shapes.
package textgen

import "context"

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StepMeta identifies the workflow step a completion belongs to. It is
// forwarded to the backend for observability only.
type StepMeta struct {
	ID      string
	Attempt int
	Title   string
	Index   int
	Total   int
}

// ChatRequest carries the conversation, sampling parameters and the owning
// step's metadata for one completion call.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	TopP        float64
	MaxTokens   int
	Step        StepMeta
}

// ChatUsage reports raw provider token accounting. Values are kept exactly
// as reported; the executor owns coercion. A nil TotalTokens means the
// provider omitted the field.
type ChatUsage struct {
	PromptTokens     float64
	CompletionTokens float64
	TotalTokens      *float64
}

// ChatResult is the raw outcome of one chat completion call.
type ChatResult struct {
	Model     string
	Content   string
	Reasoning string
	Usage     ChatUsage
}

// Completer executes one chat completion. The HTTP client implements it; the
// executor depends only on this surface so tests can substitute fakes.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResult, error)
}
