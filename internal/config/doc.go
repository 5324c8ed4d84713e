// Package config provides configuration loading and merging for the arena server.
//
// # Configuration Loading
//
// The Load function searches for and merges configuration from multiple sources
// in priority order:
//
//  1. Built-in defaults (Default)
//  2. arena.json / arena.jsonc in the working directory
//  3. ARENA_CONFIG file
//  4. ARENA_CONFIG_CONTENT inline JSON
//  5. Environment variables
//
// Later sources override earlier ones; environment variables have the highest
// precedence. LoadWith layers one more explicit file (typically from a -config
// flag) between the discovered files and the environment.
//
// # Supported Formats
//
// Both JSON and JSONC (JSON with Comments) are accepted; comments are stripped
// with tidwall/jsonc before decoding.
//
// # Variable Interpolation
//
// Configuration files support two types of variable interpolation:
//   - {env:VAR_NAME} - Expands to environment variable values
//   - {file:path} - Expands to file contents (properly escaped for JSON)
//
// File paths in {file:path} placeholders support absolute paths, paths
// relative to the config file's directory, and ~/ home expansion.
//
// Example:
//
//	{
//	  "ai": {
//	    "providers": {
//	      "anthropic": {
//	        "enabled": true,
//	        "apiKey": "{env:ANTHROPIC_API_KEY}"
//	      }
//	    }
//	  }
//	}
//
// # Configuration Merging
//
// Each file is decoded over the accumulated configuration, so keys absent from
// a file keep their current values while present keys override them. Provider
// map entries are replaced wholesale when named in a file.
//
// # Environment Variable Overrides
//
//   - HOST / PORT - listener address
//   - ARENA_DATA_DIR - data directory
//   - ARENA_ADMIN_PASSWORD - conversation download password
//   - ARENA_AI_ENABLED - toggle the AI participant subsystem
//   - ARENA_CONFIG - path to a specific config file
//   - ARENA_CONFIG_CONTENT - inline JSON configuration
//
// Provider API keys are resolved last: any provider whose apiKey is empty gets
// it from its apiKeyEnv variable (or the conventional variable for well-known
// providers, e.g. ANTHROPIC_API_KEY).
package config
