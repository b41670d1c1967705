package deepseek

import (
	"context"

	einoDeepseek "github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/helper"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/spi"
)

const Name = "deepseek"

var _ spi.ChatModelPlugin = (*Plugin)(nil)

type Plugin struct {
	helper.BasePlugin
}

func New() spi.ProviderPlugin {
	return &Plugin{
		BasePlugin: helper.BasePlugin{PluginName: Name},
	}
}

func (p *Plugin) BuildChatModel(ctx context.Context, conn *entity.Connection, params *entity.LLMParams) (model.BaseChatModel, error) {
	conf := &einoDeepseek.ChatModelConfig{
		APIKey:             conn.APIKey,
		Model:              conn.Model,
		Temperature:        0.7,
		MaxTokens:          conn.MaxTokens,
		ResponseFormatType: einoDeepseek.ResponseFormatTypeText,
	}
	if conn.BaseURL != "" {
		conf.BaseURL = conn.BaseURL
	}

	applyParamsToDeepseekConfig(conf, params)

	return einoDeepseek.NewChatModel(ctx, conf)
}

func applyParamsToDeepseekConfig(conf *einoDeepseek.ChatModelConfig, params *entity.LLMParams) {
	if params == nil {
		return
	}

	if params.Temperature != nil {
		conf.Temperature = *params.Temperature
	}
	if params.MaxTokens != 0 {
		conf.MaxTokens = params.MaxTokens
	}
}

func (p *Plugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		BaseURL: "https://api.deepseek.com/v1",
		APIKey:  "${DEEPSEEK_API_KEY}",
		Models: []options.ModelDefinition{
			{ID: "deepseek-chat", Name: "Deepseek V3", ContextWindow: 131072, MaxTokens: 8192},
			{ID: "deepseek-reasoner", Name: "Deepseek R1", Reasoning: true, ContextWindow: 131072, MaxTokens: 8192},
		},
	}
}
