package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// OpenAIBackend talks to any server exposing the OpenAI chat-completions API
// (llama.cpp llama-server, LM Studio, vLLM, OpenRouter).
type OpenAIBackend struct {
	baseURL string
	model   string
	client  *resty.Client
}

type openAIChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type openAIModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewOpenAIBackend creates a backend for model. baseURL must include the API
// version prefix, e.g. http://localhost:8080/v1.
func NewOpenAIBackend(baseURL, apiKey, model string, timeout time.Duration) *OpenAIBackend {
	if baseURL == "" {
		baseURL = "http://localhost:8080/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := resty.New().
		SetLogger(log.StandardLogger()).
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "jatran")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &OpenAIBackend{
		baseURL: baseURL,
		model:   model,
		client:  client,
	}
}

func (b *OpenAIBackend) Name() string {
	return "openai"
}

func (b *OpenAIBackend) Model() string {
	return b.model
}

// Load verifies the model is served. Servers that host a single model
// often report an empty list; that is accepted.
func (b *OpenAIBackend) Load(ctx context.Context) error {
	entry := log.WithFields(log.Fields{"backend": b.Name(), "model": b.model})
	entry.Infof("Checking model at %s", b.baseURL)

	models, err := b.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		entry.Warn("Server reports no models, assuming it serves the configured one")
		return nil
	}
	for _, id := range models {
		if id == b.model {
			entry.Info("Model is available")
			return nil
		}
	}
	return fmt.Errorf("openai: model %q not served (available: %s)", b.model, strings.Join(models, ", "))
}

func (b *OpenAIBackend) ListModels(ctx context.Context) ([]string, error) {
	var resp openAIModelsResponse
	rr, err := b.client.R().
		SetContext(ctx).
		SetResult(&resp).
		ForceContentType("application/json").
		Get("/models")
	if err != nil {
		return nil, fmt.Errorf("openai: failed to connect to %s: %w", b.baseURL, err)
	}
	if rr.IsError() {
		return nil, fmt.Errorf("openai: list models: %s; body: %s", rr.Status(), abbreviate(rr.String(), 500))
	}

	ids := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (b *OpenAIBackend) Chat(ctx context.Context, messages []Message, opts GenerateOptions) (string, error) {
	req := openAIChatRequest{
		Model:     b.model,
		Messages:  messages,
		MaxTokens: opts.MaxTokens,
	}

	var resp openAIChatResponse
	rr, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		ForceContentType("application/json").
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if rr.IsError() {
		return "", fmt.Errorf("openai chat: %s; body: %s", rr.Status(), abbreviate(rr.String(), 500))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices returned")
	}

	log.WithField("model", b.model).Debugf("usage: prompt=%d completion=%d",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}
