package provider

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/s376930/Chat-Arena/pkg/types"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantThink  string
		wantSpeech string
	}{
		{
			name:       "both tags",
			content:    "<think>They seem curious.</think><speech>Great question!</speech>",
			wantThink:  "They seem curious.",
			wantSpeech: "Great question!",
		},
		{
			name:       "tags with surrounding whitespace",
			content:    "<think>\n  reasoning here\n</think>\n<speech>\n  Hello there.\n</speech>",
			wantThink:  "reasoning here",
			wantSpeech: "Hello there.",
		},
		{
			name:       "multiline tag bodies",
			content:    "<think>line one\nline two</think><speech>first.\nsecond.</speech>",
			wantThink:  "line one\nline two",
			wantSpeech: "first.\nsecond.",
		},
		{
			name:       "speech only",
			content:    "<speech>Just speech.</speech>",
			wantThink:  "",
			wantSpeech: "Just speech.",
		},
		{
			name:       "think only",
			content:    "<think>Private note.</think>",
			wantThink:  "Private note.",
			wantSpeech: "",
		},
		{
			name:       "no tags falls back to whole content",
			content:    "  A bare reply without any tags.  ",
			wantThink:  "",
			wantSpeech: "A bare reply without any tags.",
		},
		{
			name:       "text outside tags is dropped",
			content:    "preamble <think>t</think> middle <speech>s</speech> trailer",
			wantThink:  "t",
			wantSpeech: "s",
		},
		{
			name:       "empty content",
			content:    "",
			wantThink:  "",
			wantSpeech: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			think, speech := ParseResponse(tt.content)
			if think != tt.wantThink {
				t.Errorf("ParseResponse think = %q, want %q", think, tt.wantThink)
			}
			if speech != tt.wantSpeech {
				t.Errorf("ParseResponse speech = %q, want %q", speech, tt.wantSpeech)
			}
		})
	}
}

func TestRequestDefaults(t *testing.T) {
	var req Request
	if got := req.maxTokens(); got != DefaultMaxTokens {
		t.Errorf("maxTokens() = %d, want %d", got, DefaultMaxTokens)
	}
	if got := req.temperature(); got != DefaultTemperature {
		t.Errorf("temperature() = %v, want %v", got, DefaultTemperature)
	}

	req = Request{MaxTokens: 256, Temperature: 0.2}
	if got := req.maxTokens(); got != 256 {
		t.Errorf("maxTokens() = %d, want 256", got)
	}
	if got := req.temperature(); got != 0.2 {
		t.Errorf("temperature() = %v, want 0.2", got)
	}
}

func TestRequestEinoMessages(t *testing.T) {
	history := []*schema.Message{
		{Role: schema.User, Content: "hi"},
		{Role: schema.Assistant, Content: "hello"},
	}

	req := Request{System: "You are Alex.", Messages: history}
	messages := req.einoMessages()
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[0].Role != schema.System || messages[0].Content != "You are Alex." {
		t.Errorf("first message = %+v, want system prompt", messages[0])
	}
	if messages[1].Content != "hi" || messages[2].Content != "hello" {
		t.Error("history order changed")
	}

	req = Request{Messages: history}
	if got := len(req.einoMessages()); got != 2 {
		t.Errorf("got %d messages without system prompt, want 2", got)
	}
}

func TestNewResponseMetadata(t *testing.T) {
	msg := &schema.Message{
		Role:    schema.Assistant,
		Content: "<think>ok</think><speech>hi</speech>",
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: "stop",
			Usage: &schema.TokenUsage{
				PromptTokens:     120,
				CompletionTokens: 30,
			},
		},
	}

	resp := newResponse(msg, "claude-sonnet-4-20250514")
	if resp.Think != "ok" || resp.Speech != "hi" {
		t.Errorf("parsed channels = (%q, %q)", resp.Think, resp.Speech)
	}
	if resp.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model = %q", resp.Model)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", resp.FinishReason)
	}
	if resp.TokensUsed != 150 {
		t.Errorf("TokensUsed = %d, want 150", resp.TokensUsed)
	}
}

func TestNewResponseWithoutMetadata(t *testing.T) {
	resp := newResponse(&schema.Message{Content: "plain"}, "gpt-4o")
	if resp.Speech != "plain" {
		t.Errorf("Speech = %q, want plain", resp.Speech)
	}
	if resp.FinishReason != "" || resp.TokensUsed != 0 {
		t.Errorf("metadata should stay zero, got %q/%d", resp.FinishReason, resp.TokensUsed)
	}
}

// mockProvider implements Provider for registry tests.
type mockProvider struct {
	id      string
	modelID string
}

func (m *mockProvider) ID() string    { return m.id }
func (m *mockProvider) Name() string  { return m.id }
func (m *mockProvider) Model() string { return m.modelID }
func (m *mockProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return &Response{Speech: "mock", Model: m.modelID}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry("anthropic")
	registry.Register(&mockProvider{id: "anthropic", modelID: "m1"})

	p, err := registry.Get("anthropic")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.ID() != "anthropic" {
		t.Errorf("Got provider ID %q, want anthropic", p.ID())
	}

	if _, err := registry.Get("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestRegistryPick(t *testing.T) {
	registry := NewRegistry("openai")
	registry.Register(&mockProvider{id: "anthropic"})
	registry.Register(&mockProvider{id: "openai"})

	p, err := registry.Pick("anthropic")
	if err != nil || p.ID() != "anthropic" {
		t.Errorf("Pick(anthropic) = %v, %v", p, err)
	}

	// Unknown preference falls back to the configured default.
	p, err = registry.Pick("grok")
	if err != nil || p.ID() != "openai" {
		t.Errorf("Pick(grok) = %v, %v; want default openai", p, err)
	}

	p, err = registry.Pick("")
	if err != nil || p.ID() != "openai" {
		t.Errorf("Pick(\"\") = %v, %v; want default openai", p, err)
	}
}

func TestRegistryPickFallsBackToAnyProvider(t *testing.T) {
	registry := NewRegistry("anthropic")
	registry.Register(&mockProvider{id: "ollama"})
	registry.Register(&mockProvider{id: "grok"})

	// Neither the preference nor the default is registered; the first
	// provider in ID order wins.
	p, err := registry.Pick("openai")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if p.ID() != "grok" {
		t.Errorf("Pick fell back to %q, want grok", p.ID())
	}
}

func TestRegistryPickEmpty(t *testing.T) {
	registry := NewRegistry("anthropic")
	if _, err := registry.Pick(""); err == nil {
		t.Error("expected error from empty registry")
	}
	if _, err := registry.Default(); err == nil {
		t.Error("expected error from empty registry")
	}
}

func TestRegistryListSorted(t *testing.T) {
	registry := NewRegistry("")
	registry.Register(&mockProvider{id: "openai"})
	registry.Register(&mockProvider{id: "anthropic"})
	registry.Register(&mockProvider{id: "grok"})

	want := []string{"anthropic", "grok", "openai"}
	ids := registry.IDs()
	if len(ids) != len(want) {
		t.Fatalf("got %d IDs, want %d", len(ids), len(want))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], id)
		}
	}

	providers := registry.List()
	for i, id := range want {
		if providers[i].ID() != id {
			t.Errorf("List()[%d] = %q, want %q", i, providers[i].ID(), id)
		}
	}
}

func TestInitializeProvidersSkipsDisabledAndKeyless(t *testing.T) {
	cfg := &types.Config{
		AI: types.AIConfig{
			DefaultProvider: "anthropic",
			Providers: map[string]types.ProviderConfig{
				// Disabled entries never construct.
				"ark": {Enabled: false, APIKey: "k", Model: "m"},
				// Enabled but keyless entries are skipped, not fatal.
				"anthropic": {Enabled: true, Model: "claude-sonnet-4-20250514"},
				"grok":      {Enabled: true, Model: "grok-2", BaseURL: "https://api.x.ai/v1"},
			},
		},
	}

	registry := InitializeProviders(context.Background(), cfg)
	if registry.Count() != 0 {
		t.Errorf("Count = %d, want 0", registry.Count())
	}
	if _, err := registry.Default(); err == nil {
		t.Error("expected no default provider")
	}
}
