package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/valpere/jatran/internal/config"
	"github.com/valpere/jatran/internal/postprocess"
)

// Options controls how the translation call is built.
type Options struct {
	SystemPrompt string
	MaxTokens    int
}

// Translator wraps a loaded model. It holds no mutable state after New
// returns and may be shared by concurrent requests.
type Translator struct {
	backend Backend
	opts    Options
}

// New loads the backend model and returns a ready Translator. Any load
// failure is reported as ErrModelUnavailable.
func New(ctx context.Context, backend Backend, opts Options) (*Translator, error) {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = config.DefaultSystemPrompt
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 256
	}

	start := time.Now()
	if err := backend.Load(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	log.WithFields(log.Fields{
		"backend": backend.Name(),
		"model":   backend.Model(),
		"latency": time.Since(start).Truncate(time.Millisecond),
	}).Info("Translator initialized")

	return &Translator{backend: backend, opts: opts}, nil
}

// NewBackend builds the Backend selected by cfg.Backend.
func NewBackend(cfg config.ModelConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendOllama:
		return NewOllamaBackend(cfg.BaseURL, cfg.Name, cfg.Pull, cfg.Timeout), nil
	case config.BackendOpenAI:
		return NewOpenAIBackend(cfg.BaseURL, cfg.APIKey, cfg.Name, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
}

// Model names the model behind the translator.
func (t *Translator) Model() string {
	return t.backend.Model()
}

// Messages builds the two-turn instruction sent for text.
func (t *Translator) Messages(text string) []Message {
	return []Message{
		{Role: RoleSystem, Content: t.opts.SystemPrompt},
		{Role: RoleUser, Content: text},
	}
}

// Translate returns the generated continuation for text with surrounding
// whitespace removed. An empty result is a valid translation.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}

	raw, err := t.backend.Chat(ctx, t.Messages(text), GenerateOptions{MaxTokens: t.opts.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return postprocess.Continuation(raw), nil
}
