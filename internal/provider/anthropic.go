package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/s376930/Chat-Arena/pkg/types"
)

// AnthropicProvider generates completions with Anthropic Claude models.
type AnthropicProvider struct {
	chatModel model.ToolCallingChatModel
	modelID   string
}

// NewAnthropicProvider creates an Anthropic provider from its config entry.
func NewAnthropicProvider(ctx context.Context, cfg types.ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = "claude-sonnet-4-20250514"
	}

	claudeCfg := &claude.Config{
		APIKey:    cfg.APIKey,
		Model:     modelID,
		MaxTokens: DefaultMaxTokens,
	}
	if cfg.BaseURL != "" {
		claudeCfg.BaseURL = &cfg.BaseURL
	}

	chatModel, err := claude.NewChatModel(ctx, claudeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Claude model: %w", err)
	}

	return &AnthropicProvider{
		chatModel: chatModel,
		modelID:   modelID,
	}, nil
}

// ID returns the provider identifier.
func (p *AnthropicProvider) ID() string { return "anthropic" }

// Name returns the human-readable provider name.
func (p *AnthropicProvider) Name() string { return "Anthropic" }

// Model returns the configured model identifier.
func (p *AnthropicProvider) Model() string { return p.modelID }

// Generate produces one completion for the request.
func (p *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	msg, err := p.chatModel.Generate(ctx, req.einoMessages(),
		model.WithMaxTokens(req.maxTokens()),
		model.WithTemperature(float32(req.temperature())),
	)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}

	return newResponse(msg, p.modelID), nil
}
