package spi

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
)

// ProviderPlugin is the interface for provider plugins.
type ProviderPlugin interface {
	// Name returns the name of the provider plugin.
	Name() string
	// DefaultConfig returns the default configuration for the provider plugin.
	// API keys and base URLs are "${ENV}" references resolved at connection time.
	DefaultConfig() *options.ProviderConfig
	// RequiresAPIKey reports whether a connection without a key must be rejected up front.
	RequiresAPIKey() bool
	// BuildConnection resolves cfg into connection info for modelID.
	BuildConnection(cfg *options.ProviderConfig, modelID string) (*entity.Connection, error)
}

// ChatModelPlugin extends ProviderPlugin with the ability to build Eino chat models.
type ChatModelPlugin interface {
	ProviderPlugin
	// BuildChatModel builds a chat model for conn. params may be nil, in which
	// case provider defaults are used. Every in-tree provider returns a model
	// that also implements model.ToolCallingChatModel.
	BuildChatModel(ctx context.Context, conn *entity.Connection, params *entity.LLMParams) (model.BaseChatModel, error)
}

// PluginFactory is a function that creates a ProviderPlugin instance.
type PluginFactory func() ProviderPlugin
