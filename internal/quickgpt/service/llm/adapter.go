package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/jinzhu/copier"
	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/helper"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/spi"
	"github.com/kiosk404/quickgpt/pkg/logger"
)

// Adapter turns a model name into a ready Client for the matching provider.
type Adapter struct {
	registry *provider.Registry
	models   *options.ModelOptions
	retry    *options.RetryOptions
}

func NewAdapter(registry *provider.Registry, models *options.ModelOptions, retry *options.RetryOptions) *Adapter {
	if registry == nil {
		registry = provider.NewInTreeRegistry()
	}
	if models == nil {
		models = options.NewModelOptions()
	}
	if retry == nil {
		retry = options.NewRetryOptions()
	}
	return &Adapter{registry: registry, models: models, retry: retry}
}

// Resolve reports which provider serves modelName without touching the network.
func (a *Adapter) Resolve(modelName string) Route {
	return ResolveModel(modelName, a.registry.Has)
}

// Open builds the chat model for modelName. A provider that needs an API key
// and has none fails here with an auth error before any request is sent.
func (a *Adapter) Open(ctx context.Context, modelName string) (*Client, error) {
	route := a.Resolve(modelName)
	if route.Guessed {
		logger.Warn("Maybe you entered an invalid model_name %q? Falling back to the %s provider.", modelName, route.Provider)
	}

	plugin, err := a.registry.Get(route.Provider)
	if err != nil {
		return nil, err
	}
	chatPlugin, ok := plugin.(spi.ChatModelPlugin)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot build chat models", route.Provider)
	}

	cfg, err := a.ProviderConfig(plugin)
	if err != nil {
		return nil, err
	}
	conn, err := plugin.BuildConnection(cfg, route.Model)
	if err != nil {
		return nil, fmt.Errorf("build connection for %s/%s: %w", route.Provider, route.Model, err)
	}
	if plugin.RequiresAPIKey() && conn.APIKey == "" {
		msg := "no API key configured"
		if key := helper.EnvKeyName(cfg.APIKey); key != "" {
			msg = fmt.Sprintf("no API key configured, set %s", key)
		}
		return nil, entity.NewAuthError(route.Provider, route.Model, msg)
	}

	chat, err := chatPlugin.BuildChatModel(ctx, conn, a.params())
	if err != nil {
		return nil, entity.WrapProviderError(err, route.Provider, route.Model)
	}

	logger.Info("[Adapter] opened %s/%s", route.Provider, route.Model)
	return NewClient(route.Provider, route.Model, chat, a.retry), nil
}

// ProviderConfig overlays the user's provider section on the plugin defaults.
func (a *Adapter) ProviderConfig(p spi.ProviderPlugin) (*options.ProviderConfig, error) {
	cfg := p.DefaultConfig()
	user := a.models.Providers[p.Name()]
	if user == nil {
		return cfg, nil
	}
	if a.models.Mode == "replace" {
		return user, nil
	}
	if err := copier.CopyWithOption(cfg, user, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("merge config for provider %s: %w", p.Name(), err)
	}
	return cfg, nil
}

// Providers lists registered provider names.
func (a *Adapter) Providers() []string {
	return a.registry.List()
}

// Plugin returns the provider plugin registered under name.
func (a *Adapter) Plugin(name string) (spi.ProviderPlugin, error) {
	return a.registry.Get(name)
}

func (a *Adapter) params() *entity.LLMParams {
	p := &entity.LLMParams{MaxTokens: a.models.MaxTokens}
	if a.models.Temperature > 0 {
		t := a.models.Temperature
		p.Temperature = &t
	}
	return p
}

// Client sends conversations to one provider/model pair.
type Client struct {
	provider string
	model    string
	chat     model.BaseChatModel
	backoff  *Backoff
	timeout  time.Duration
}

func NewClient(providerName, modelName string, chat model.BaseChatModel, retry *options.RetryOptions) *Client {
	b := NewBackoff(retry)
	return &Client{
		provider: providerName,
		model:    modelName,
		chat:     chat,
		backoff:  b,
		timeout:  b.opts.Timeout,
	}
}

func (c *Client) Provider() string { return c.provider }
func (c *Client) Model() string    { return c.model }

// Send submits messages with the given tool schemas. An empty tool list sends
// the request without tools, which forces a text answer.
func (c *Client) Send(ctx context.Context, messages []*entity.Message, tools []*schema.ToolInfo) (*entity.ProviderResponse, error) {
	cm := c.chat
	if len(tools) > 0 {
		tcm, ok := c.chat.(model.ToolCallingChatModel)
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", errno.ErrModelNotToolReady, c.provider, c.model)
		}
		bound, err := tcm.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("bind %d tools to %s/%s: %w", len(tools), c.provider, c.model, err)
		}
		cm = bound
	}

	input := ToSchemaMessages(messages)
	var out *schema.Message
	err := c.backoff.Do(ctx, func(ctx context.Context) error {
		reqCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		msg, err := cm.Generate(reqCtx, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return entity.WrapProviderError(err, c.provider, c.model)
		}
		out = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToProviderResponse(out, c.provider, c.model)
	logger.Debug("[Adapter] %s/%s returned %s (%d tool calls)", c.provider, c.model, resp.Kind, len(resp.ToolCalls))
	return resp, nil
}
