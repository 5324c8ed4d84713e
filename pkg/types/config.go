package types

import "time"

// Config is the full Chat-Arena server configuration.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty"`

	Server  ServerConfig  `json:"server"`
	Data    DataConfig    `json:"data"`
	Chat    ChatConfig    `json:"chat"`
	Pairing PairingConfig `json:"pairing"`
	AI      AIConfig      `json:"ai"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	EnableCORS bool   `json:"enableCORS"`

	// AdminPassword protects the conversation download endpoints.
	// Empty disables the check (local research deployments).
	AdminPassword string `json:"adminPassword,omitempty"`
}

// DataConfig holds filesystem locations. Catalogs live directly under Dir;
// conversation records under Dir/conversations.
type DataConfig struct {
	Dir string `json:"dir"`
}

// ChatConfig holds message validation and inactivity policy.
type ChatConfig struct {
	MinThinkChars            int `json:"minThinkChars"`
	InactivityTimeoutSeconds int `json:"inactivityTimeoutSeconds"`
	InactivityCheckSeconds   int `json:"inactivityCheckSeconds"`
}

// InactivityTimeout returns the eviction threshold as a duration.
func (c ChatConfig) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutSeconds) * time.Second
}

// InactivityCheckInterval returns the evictor tick interval as a duration.
func (c ChatConfig) InactivityCheckInterval() time.Duration {
	return time.Duration(c.InactivityCheckSeconds) * time.Second
}

// PairingConfig holds the post-separation cooldown policy.
type PairingConfig struct {
	DelayEnabled bool `json:"delayEnabled"`
	DelaySeconds int  `json:"delaySeconds"`
}

// Delay returns the cooldown as a duration.
func (c PairingConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}

// AIConfig holds the AI-participant subsystem settings.
type AIConfig struct {
	Enabled         bool   `json:"enabled"`
	DefaultProvider string `json:"defaultProvider"`
	MaxParticipants int    `json:"maxParticipants"`
	ForceOnOddUsers bool   `json:"forceOnOddUsers"`

	// PersonasFile points at an optional YAML catalog of extra personas.
	PersonasFile string `json:"personasFile,omitempty"`

	Behavior  BehaviorConfig            `json:"behavior"`
	Memory    MemoryConfig              `json:"memory"`
	Providers map[string]ProviderConfig `json:"providers,omitempty"`
}

// BehaviorConfig tunes how an AI participant paces itself.
type BehaviorConfig struct {
	ResponseDelayMinMs   int `json:"responseDelayMinMs"`
	ResponseDelayMaxMs   int `json:"responseDelayMaxMs"`
	TypingSpeedMsPerWord int `json:"typingSpeedMsPerWord"`
	IdleTimeoutSeconds   int `json:"idleTimeoutSeconds"`
	IdleCheckSeconds     int `json:"idleCheckSeconds"`
	MaxRetries           int `json:"maxRetries"`
	RetryDelaySeconds    int `json:"retryDelaySeconds"`
}

// MinResponseDelay returns the lower typing-delay bound.
func (c BehaviorConfig) MinResponseDelay() time.Duration {
	return time.Duration(c.ResponseDelayMinMs) * time.Millisecond
}

// MaxResponseDelay returns the upper typing-delay bound.
func (c BehaviorConfig) MaxResponseDelay() time.Duration {
	return time.Duration(c.ResponseDelayMaxMs) * time.Millisecond
}

// IdleTimeout returns how long a partner may stay quiet before re-engagement.
func (c BehaviorConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// IdleCheckInterval returns the idle-monitor tick interval.
func (c BehaviorConfig) IdleCheckInterval() time.Duration {
	return time.Duration(c.IdleCheckSeconds) * time.Second
}

// RetryDelay returns the pause between provider retries.
func (c BehaviorConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// MemoryConfig bounds the per-AI conversation memory.
type MemoryConfig struct {
	MaxEntries int `json:"maxEntries"`
}

// ProviderConfig holds configuration for one LLM provider.
type ProviderConfig struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model,omitempty"`

	// Direct API key, or the name of the env var carrying it.
	APIKey    string `json:"apiKey,omitempty"`
	APIKeyEnv string `json:"apiKeyEnv,omitempty"`

	BaseURL string `json:"baseURL,omitempty"`
}
