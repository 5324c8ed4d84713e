package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// Registry holds the providers that came up successfully and resolves
// which one an AI participant should use.
type Registry struct {
	log       zerolog.Logger
	mu        sync.RWMutex
	providers map[string]Provider
	defaultID string
}

// NewRegistry creates an empty registry with the given default provider ID.
func NewRegistry(defaultID string) *Registry {
	return &Registry{
		log:       logging.Component("provider"),
		providers: make(map[string]Provider),
		defaultID: defaultID,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get retrieves a provider by ID.
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", id)
	}
	return p, nil
}

// Pick resolves the provider to use: the preferred one when registered,
// else the configured default, else any registered provider.
func (r *Registry) Pick(preferred string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if preferred != "" {
		if p, ok := r.providers[preferred]; ok {
			return p, nil
		}
	}
	if p, ok := r.providers[r.defaultID]; ok {
		return p, nil
	}
	for _, id := range r.idsLocked() {
		return r.providers[id], nil
	}
	return nil, fmt.Errorf("no providers available")
}

// Default resolves the configured default provider, falling back to any
// registered provider.
func (r *Registry) Default() (Provider, error) {
	return r.Pick("")
}

// List returns all registered providers sorted by ID.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, id := range r.idsLocked() {
		providers = append(providers, r.providers[id])
	}
	return providers
}

// IDs returns the registered provider IDs sorted alphabetically.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

// Count returns the number of registered providers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InitializeProviders builds a registry from the enabled provider entries.
// Each provider comes up independently: a missing key or unreachable
// endpoint skips that provider and never fails the whole registry.
func InitializeProviders(ctx context.Context, cfg *types.Config) *Registry {
	registry := NewRegistry(cfg.AI.DefaultProvider)

	for id, providerCfg := range cfg.AI.Providers {
		if !providerCfg.Enabled {
			continue
		}

		p, err := newProvider(ctx, id, providerCfg)
		if err != nil {
			registry.log.Warn().Str("provider", id).Err(err).Msg("provider unavailable")
			continue
		}

		registry.Register(p)
		registry.log.Info().Str("provider", id).Str("model", p.Model()).Msg("initialized provider")
	}

	if registry.Count() == 0 {
		registry.log.Warn().Msg("no AI providers available, AI participants will not spawn")
	}

	return registry
}

// newProvider constructs the provider registered under the given config ID.
func newProvider(ctx context.Context, id string, cfg types.ProviderConfig) (Provider, error) {
	switch id {
	case "anthropic":
		return NewAnthropicProvider(ctx, cfg)
	case "ark":
		return NewArkProvider(ctx, cfg)
	default:
		// OpenAI itself plus every OpenAI-compatible endpoint (grok, ollama).
		return NewOpenAIProvider(ctx, id, cfg)
	}
}
