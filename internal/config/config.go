package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/s376930/Chat-Arena/pkg/types"
	"github.com/tidwall/jsonc"
)

// Default returns the built-in configuration. Every knob carries the value
// the server uses when no config file or environment override is present.
func Default() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:       "0.0.0.0",
			Port:       8000,
			EnableCORS: true,
		},
		Data: types.DataConfig{
			Dir: "./data",
		},
		Chat: types.ChatConfig{
			MinThinkChars:            10,
			InactivityTimeoutSeconds: 1800,
			InactivityCheckSeconds:   60,
		},
		Pairing: types.PairingConfig{
			DelayEnabled: true,
			DelaySeconds: 10,
		},
		AI: types.AIConfig{
			Enabled:         true,
			DefaultProvider: "anthropic",
			MaxParticipants: 5,
			ForceOnOddUsers: true,
			Behavior: types.BehaviorConfig{
				ResponseDelayMinMs:   500,
				ResponseDelayMaxMs:   3000,
				TypingSpeedMsPerWord: 200,
				IdleTimeoutSeconds:   120,
				IdleCheckSeconds:     30,
				MaxRetries:           3,
				RetryDelaySeconds:    1,
			},
			Memory: types.MemoryConfig{
				MaxEntries: 50,
			},
			Providers: map[string]types.ProviderConfig{
				"anthropic": {
					Enabled:   true,
					Model:     "claude-sonnet-4-20250514",
					APIKeyEnv: "ANTHROPIC_API_KEY",
				},
				"openai": {
					Enabled:   true,
					Model:     "gpt-4o",
					APIKeyEnv: "OPENAI_API_KEY",
				},
				"grok": {
					Enabled:   false,
					Model:     "grok-2",
					APIKeyEnv: "XAI_API_KEY",
					BaseURL:   "https://api.x.ai/v1",
				},
				"ark": {
					Enabled:   false,
					Model:     "doubao-1-5-pro-32k-250115",
					APIKeyEnv: "ARK_API_KEY",
				},
				"ollama": {
					Enabled: false,
					Model:   "llama3.2",
					BaseURL: "http://localhost:11434/v1",
				},
			},
		},
	}
}

// Load loads configuration from the standard locations (priority order):
// 1. Built-in defaults
// 2. arena.json / arena.jsonc in the working directory
// 3. ARENA_CONFIG file
// 4. ARENA_CONFIG_CONTENT inline JSON
// 5. Environment variables (highest priority)
func Load(directory string) (*types.Config, error) {
	return LoadWith(directory, "")
}

// LoadWith is Load with an explicit config file layered over the standard
// locations. The explicit file wins over discovered files; environment
// variables still win over everything.
func LoadWith(directory, configFile string) (*types.Config, error) {
	config := Default()

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Working directory config
	if directory != "" {
		loadOnce(filepath.Join(directory, "arena.json"), directory)
		loadOnce(filepath.Join(directory, "arena.jsonc"), directory)
	}

	// 2. ARENA_CONFIG file override
	if configPath := os.Getenv("ARENA_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	// 3. Explicit file (e.g. from a -config flag)
	if configFile != "" {
		loadOnce(configFile, filepath.Dir(configFile))
	}

	// 4. ARENA_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("ARENA_CONFIG_CONTENT"); configContent != "" {
		data := interpolate(jsonc.ToJSON([]byte(configContent)), directory)
		_ = json.Unmarshal(data, config)
	}

	// 5. Environment variables (highest priority)
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file over the accumulated config.
// Decoding into the populated struct gives deep-merge semantics: keys absent
// from the file keep their current values.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	// Apply interpolation
	data = interpolate(data, baseDir)

	return json.Unmarshal(data, config)
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	// Handle {env:VAR_NAME} placeholders
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	// Handle {file:path} placeholders
	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		// Resolve path
		if strings.HasPrefix(filePath, "~/") {
			home := os.Getenv("HOME")
			filePath = filepath.Join(home, filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		// Escape for JSON string
		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")

		return escaped
	})

	return []byte(str)
}

// defaultKeyEnv maps well-known provider IDs to their conventional API key
// environment variables, used when a provider entry has no apiKeyEnv set.
var defaultKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"grok":      "XAI_API_KEY",
	"ark":       "ARK_API_KEY",
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	// Provider API keys: resolve apiKeyEnv indirection so the rest of the
	// server only ever looks at APIKey.
	for name, p := range config.AI.Providers {
		if p.APIKey != "" {
			continue
		}
		envVar := p.APIKeyEnv
		if envVar == "" {
			envVar = defaultKeyEnv[name]
		}
		if envVar == "" {
			continue
		}
		if key := os.Getenv(envVar); key != "" {
			p.APIKey = key
			config.AI.Providers[name] = p
		}
	}

	// Listener overrides
	if host := os.Getenv("HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			config.Server.Port = n
		}
	}

	// Operational overrides
	if dir := os.Getenv("ARENA_DATA_DIR"); dir != "" {
		config.Data.Dir = dir
	}
	if pw := os.Getenv("ARENA_ADMIN_PASSWORD"); pw != "" {
		config.Server.AdminPassword = pw
	}
	if enabled := os.Getenv("ARENA_AI_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.AI.Enabled = b
		}
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
