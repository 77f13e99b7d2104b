package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"golang.org/x/time/rate"

	"argus/pkg/errors"
)

// OpenAIClient implements the Client contract on the official OpenAI SDK.
type OpenAIClient struct {
	client  openai.Client
	limiter *rate.Limiter
}

// NewOpenAIClient creates a new OpenAI chat client.
func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	)

	return &OpenAIClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Provider returns the provider name.
func (c *OpenAIClient) Provider() string { return "openai" }

// Complete sends a chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewProviderError(c.Provider(), errors.ProviderNetwork, err)
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: buildOpenAIMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  toolParameters(t),
		}))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyOpenAIError(c.Provider(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.NewProviderError(c.Provider(), errors.ProviderMalformed,
			errors.New("completion has no choices"))
	}

	choice := resp.Choices[0]
	out := &Completion{
		Content: choice.Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		args, err := decodeToolArgs(tc.Function.Arguments)
		if err != nil {
			return nil, errors.NewProviderError(c.Provider(), errors.ProviderMalformed, err)
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return out, nil
}

func buildOpenAIMessages(req CompletionRequest) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

func toolParameters(t ToolSchema) shared.FunctionParameters {
	props := make(map[string]interface{}, len(t.Params))
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		props[p.Name] = map[string]interface{}{
			"type":        "string",
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return shared.FunctionParameters{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func decodeToolArgs(raw string) (map[string]string, error) {
	if raw == "" {
		return map[string]string{}, nil
	}
	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, errors.Wrap(err, "decode tool call arguments")
	}
	args := make(map[string]string, len(generic))
	for k, v := range generic {
		args[k] = fmt.Sprintf("%v", v)
	}
	return args, nil
}

func classifyOpenAIError(provider string, err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return errors.NewProviderError(provider, errors.ProviderAuth, err)
		case apierr.StatusCode == http.StatusTooManyRequests:
			return errors.NewProviderError(provider, errors.ProviderQuota, err)
		case apierr.StatusCode >= 500:
			return errors.NewProviderError(provider, errors.ProviderNetwork, err)
		default:
			return errors.NewProviderError(provider, errors.ProviderMalformed, err)
		}
	}
	return errors.NewProviderError(provider, errors.ProviderNetwork, err)
}
