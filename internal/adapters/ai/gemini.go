package ai

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"argus/pkg/errors"
)

// GeminiClient implements the Client contract on the Gemini SDK.
type GeminiClient struct {
	apiKey string
}

// NewGeminiClient creates a new Gemini chat client.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey}
}

// Provider returns the provider name.
func (c *GeminiClient) Provider() string { return "gemini" }

// Complete sends a generate-content request.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewProviderError(c.Provider(), errors.ProviderAuth, err)
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: buildGeminiTools(req.Tools)}}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, classifyGeminiError(c.Provider(), err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.NewProviderError(c.Provider(), errors.ProviderMalformed,
			errors.New("response has no candidates"))
	}

	out := &Completion{Model: req.Model}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			out.Content += part.Text
		}
		if part.FunctionCall != nil {
			args := make(map[string]string, len(part.FunctionCall.Args))
			for k, v := range part.FunctionCall.Args {
				args[k] = fmt.Sprintf("%v", v)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: args,
			})
		}
	}

	return out, nil
}

func buildGeminiTools(tools []ToolSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Params))
		required := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			props[p.Name] = &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return decls
}

func classifyGeminiError(provider string, err error) error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		switch {
		case apierr.Code == http.StatusUnauthorized || apierr.Code == http.StatusForbidden:
			return errors.NewProviderError(provider, errors.ProviderAuth, err)
		case apierr.Code == http.StatusTooManyRequests:
			return errors.NewProviderError(provider, errors.ProviderQuota, err)
		case apierr.Code >= 500:
			return errors.NewProviderError(provider, errors.ProviderNetwork, err)
		default:
			return errors.NewProviderError(provider, errors.ProviderMalformed, err)
		}
	}
	return errors.NewProviderError(provider, errors.ProviderNetwork, err)
}
