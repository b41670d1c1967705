package helper

import (
	"os"
	"strings"

	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
)

type BasePlugin struct {
	PluginName string
}

func (b *BasePlugin) Name() string {
	return b.PluginName
}

// DefaultConfig returns the default configuration for the provider.
func (b *BasePlugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{}
}

// RequiresAPIKey is true for every hosted provider.
func (b *BasePlugin) RequiresAPIKey() bool {
	return true
}

// BuildConnection resolves env references in cfg and attaches the model definition, if any.
func (b *BasePlugin) BuildConnection(cfg *options.ProviderConfig, modelID string) (*entity.Connection, error) {
	conn := &entity.Connection{
		Provider: b.PluginName,
		Model:    modelID,
		BaseURL:  ResolveEnvValue(cfg.BaseURL),
		APIKey:   ResolveEnvValue(cfg.APIKey),
		Headers:  cfg.Headers,
	}
	if def := cfg.Model(modelID); def != nil {
		conn.Reasoning = def.Reasoning
		conn.MaxTokens = def.MaxTokens
	}
	return conn, nil
}

// ResolveEnvValue resolves "${ENV_VAR}" and "${ENV_VAR:-fallback}" references in a string.
func ResolveEnvValue(s string) string {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return s
	}
	body := s[2 : len(s)-1]
	key, fallback, hasFallback := strings.Cut(body, ":-")
	if v := os.Getenv(key); v != "" {
		return v
	}
	if hasFallback {
		return fallback
	}
	return ""
}

// EnvKeyName returns the variable name referenced by s, or "" when s is a literal.
func EnvKeyName(s string) string {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return ""
	}
	key, _, _ := strings.Cut(s[2:len(s)-1], ":-")
	return key
}
