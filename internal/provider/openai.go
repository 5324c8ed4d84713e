package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/s376930/Chat-Arena/pkg/types"
)

// OpenAIProvider generates completions against OpenAI's chat API, or any
// OpenAI-compatible endpoint. Grok and Ollama both route through it with
// their own base URLs.
type OpenAIProvider struct {
	chatModel model.ToolCallingChatModel
	id        string
	modelID   string
}

// NewOpenAIProvider creates a provider for the given config entry. The id
// distinguishes compatible endpoints ("openai", "grok", "ollama") sharing
// this client.
func NewOpenAIProvider(ctx context.Context, id string, cfg types.ProviderConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		if id != "ollama" {
			return nil, fmt.Errorf("no API key configured for provider %q", id)
		}
		// Ollama ignores auth but the client still sends a bearer token.
		apiKey = "ollama"
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = "gpt-4o"
	}

	maxTokens := DefaultMaxTokens
	openaiCfg := &openai.ChatModelConfig{
		APIKey:              apiKey,
		Model:               modelID,
		MaxCompletionTokens: &maxTokens,
	}
	if cfg.BaseURL != "" {
		openaiCfg.BaseURL = cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, openaiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
	}

	return &OpenAIProvider{
		chatModel: chatModel,
		id:        id,
		modelID:   modelID,
	}, nil
}

// ID returns the provider identifier.
func (p *OpenAIProvider) ID() string { return p.id }

// Name returns the human-readable provider name.
func (p *OpenAIProvider) Name() string {
	switch p.id {
	case "grok":
		return "Grok"
	case "ollama":
		return "Ollama"
	default:
		return "OpenAI"
	}
}

// Model returns the configured model identifier.
func (p *OpenAIProvider) Model() string { return p.modelID }

// Generate produces one completion for the request.
func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	// Newer OpenAI models reject max_tokens in favor of max_completion_tokens.
	msg, err := p.chatModel.Generate(ctx, req.einoMessages(),
		openai.WithMaxCompletionTokens(req.maxTokens()),
		model.WithTemperature(float32(req.temperature())),
	)
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", p.id, err)
	}

	return newResponse(msg, p.modelID), nil
}
