package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no Anthropic API key is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// ErrNoSearchKey is returned when the search tool has no Serper API key.
var ErrNoSearchKey = errors.New("no Serper API key configured")

const (
	anthropicKeyEnv = "ANTHROPIC_API_KEY"
	serperKeyEnv    = "SERPER_API_KEY"
)

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKey returns the Anthropic API key.
// It checks in order: environment variable, config file.
func GetAPIKey(cfg *Config) (string, error) {
	var configured string
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	key, _ := lookupKey(anthropicKeyEnv, configured)
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// GetSearchAPIKey returns the Serper API key used by the search tool.
func GetSearchAPIKey(cfg *Config) (string, error) {
	var configured string
	if cfg != nil {
		configured = cfg.Tools.Search.APIKey
	}
	key, _ := lookupKey(serperKeyEnv, configured)
	if key == "" {
		return "", ErrNoSearchKey
	}
	return key, nil
}

// GetAPIKeySource returns where the Anthropic API key was sourced from.
func GetAPIKeySource(cfg *Config) KeySource {
	var configured string
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	_, src := lookupKey(anthropicKeyEnv, configured)
	return src
}

func lookupKey(envVar, configured string) (string, KeySource) {
	if key := os.Getenv(envVar); key != "" {
		return key, KeySourceEnv
	}

	if configured != "" {
		// Expand any remaining env var references
		key := os.ExpandEnv(configured)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, KeySourceConfig
		}
	}

	return "", KeySourceNone
}

// ValidateAPIKey performs basic validation on an Anthropic API key.
// It checks format but does not verify the key with Anthropic's API.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}

	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}

	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// MaskAPIKey returns a masked version of an API key for display.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}
