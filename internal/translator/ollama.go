package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// OllamaBackend talks to a local or remote Ollama server.
type OllamaBackend struct {
	baseURL string
	model   string
	pull    bool
	client  *resty.Client
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaPullResponse struct {
	Status string `json:"status"`
}

// NewOllamaBackend creates a backend for model at baseURL. When pull is set,
// Load downloads the model if the server does not have it yet. A zero
// timeout means requests wait indefinitely.
func NewOllamaBackend(baseURL, model string, pull bool, timeout time.Duration) *OllamaBackend {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := resty.New().
		SetLogger(log.StandardLogger()).
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &OllamaBackend{
		baseURL: baseURL,
		model:   model,
		pull:    pull,
		client:  client,
	}
}

func (b *OllamaBackend) Name() string {
	return "ollama"
}

func (b *OllamaBackend) Model() string {
	return b.model
}

// Load checks /api/tags for the model and pulls it when missing and allowed.
func (b *OllamaBackend) Load(ctx context.Context) error {
	entry := log.WithFields(log.Fields{"backend": b.Name(), "model": b.model})
	entry.Infof("Checking model at %s", b.baseURL)

	models, err := b.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, name := range models {
		if name == b.model || name == b.model+":latest" {
			entry.Info("Model is available")
			return nil
		}
	}

	if !b.pull {
		return fmt.Errorf("ollama: model %q not found and pulling is disabled", b.model)
	}

	entry.Warn("Model not found, pulling (this can take minutes)")
	var pullResp ollamaPullResponse
	rr, err := b.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"model": b.model, "stream": false}).
		SetResult(&pullResp).
		ForceContentType("application/json").
		Post("/api/pull")
	if err != nil {
		return fmt.Errorf("ollama: failed to pull %q: %w", b.model, err)
	}
	if rr.IsError() {
		return fmt.Errorf("ollama: pull %q: %s; body: %s", b.model, rr.Status(), abbreviate(rr.String(), 500))
	}
	if pullResp.Status != "" && pullResp.Status != "success" {
		return fmt.Errorf("ollama: pull %q ended with status %q", b.model, pullResp.Status)
	}

	entry.Info("Model pulled")
	return nil
}

// ListModels returns the names of models installed on the server.
func (b *OllamaBackend) ListModels(ctx context.Context) ([]string, error) {
	var tags ollamaTagsResponse
	rr, err := b.client.R().
		SetContext(ctx).
		SetResult(&tags).
		ForceContentType("application/json").
		Get("/api/tags")
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to connect to %s: %w", b.baseURL, err)
	}
	if rr.IsError() {
		return nil, fmt.Errorf("ollama: list models: %s; body: %s", rr.Status(), abbreviate(rr.String(), 500))
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (b *OllamaBackend) Chat(ctx context.Context, messages []Message, opts GenerateOptions) (string, error) {
	req := ollamaChatRequest{
		Model:    b.model,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"temperature": 0,
		},
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}

	var resp ollamaChatResponse
	rr, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		ForceContentType("application/json").
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if rr.IsError() {
		return "", fmt.Errorf("ollama chat: %s; body: %s", rr.Status(), abbreviate(rr.String(), 500))
	}

	return resp.Message.Content, nil
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
