package ai

import (
	"context"

	"argus/internal/adapters/config"
	"argus/pkg/errors"
)

// Message is one turn of an LLM conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ToolCall is a function call emitted by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]string
}

// ParamSchema declares one tool parameter.
type ParamSchema struct {
	Name        string
	Description string
	Required    bool
}

// ToolSchema declares one callable tool exposed to the model.
type ToolSchema struct {
	Name        string
	Description string
	Params      []ParamSchema
}

// CompletionRequest is a single chat completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolSchema
	MaxTokens   int
	Temperature float64
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Completion is the model's reply: either content, or one or more tool calls.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	Model     string
	Usage     Usage
}

// Client is the LLM boundary. Implementations surface failures as
// *errors.ProviderError so callers can distinguish retryable kinds.
type Client interface {
	Provider() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// NewClient builds a provider client by name, wrapped with bounded
// exponential-backoff retries.
func NewClient(cfg config.AIConfig, provider string) (Client, error) {
	var base Client
	switch provider {
	case "openai":
		base = NewOpenAIClient(cfg.OpenAIKey, cfg.RequestTimeout)
	case "gemini":
		base = NewGeminiClient(cfg.GeminiKey)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown AI provider %q", provider)
	}

	return WithRetry(base, cfg.MaxRetries, cfg.RetryBaseDelay), nil
}
