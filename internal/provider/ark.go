package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/s376930/Chat-Arena/pkg/types"
)

// ArkProvider generates completions with Volcengine ARK models.
type ArkProvider struct {
	chatModel model.ToolCallingChatModel
	modelID   string
}

// NewArkProvider creates an ARK provider from its config entry. The model
// field carries the ARK endpoint ID and is required.
func NewArkProvider(ctx context.Context, cfg types.ProviderConfig) (*ArkProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ARK_API_KEY not set")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ARK_MODEL_ID not set")
	}

	maxTokens := DefaultMaxTokens
	arkCfg := &ark.ChatModelConfig{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
	}
	if cfg.BaseURL != "" {
		arkCfg.BaseURL = cfg.BaseURL
	}

	chatModel, err := ark.NewChatModel(ctx, arkCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ARK model: %w", err)
	}

	return &ArkProvider{
		chatModel: chatModel,
		modelID:   cfg.Model,
	}, nil
}

// ID returns the provider identifier.
func (p *ArkProvider) ID() string { return "ark" }

// Name returns the human-readable provider name.
func (p *ArkProvider) Name() string { return "ARK" }

// Model returns the configured endpoint identifier.
func (p *ArkProvider) Model() string { return p.modelID }

// Generate produces one completion for the request.
func (p *ArkProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	msg, err := p.chatModel.Generate(ctx, req.einoMessages(),
		model.WithMaxTokens(req.maxTokens()),
		model.WithTemperature(float32(req.temperature())),
	)
	if err != nil {
		return nil, fmt.Errorf("ark generate: %w", err)
	}

	return newResponse(msg, p.modelID), nil
}
