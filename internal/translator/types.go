package translator

import (
	"context"
	"errors"
)

// Error kinds reported by the translation call. Callers map them with errors.Is.
var (
	ErrEmptyInput       = errors.New("input text cannot be empty")
	ErrGeneration       = errors.New("generation failed")
	ErrModelUnavailable = errors.New("model unavailable")
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateOptions struct {
	MaxTokens int
}

// Backend is a model server that renders the chat template and generates
// the assistant turn.
type Backend interface {
	Name() string
	Model() string
	// Load makes sure the model is present and ready. It is called once,
	// before any Chat call.
	Load(ctx context.Context) error
	// Chat returns the generated assistant content for messages.
	Chat(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
}
