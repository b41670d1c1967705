package helper

import (
	"context"
	"net/http"

	"github.com/bytedance/gg/gptr"
	einoOpenAI "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
)

// NewOpenAICompatibleChatModel creates an Eino ChatModel using the OpenAI-compatible API.
// This is the common path for OpenAI itself and for providers exposing an
// OpenAI-compatible endpoint (GLM/ZhiPu).
func NewOpenAICompatibleChatModel(ctx context.Context, conn *entity.Connection, params *entity.LLMParams) (model.BaseChatModel, error) {
	cfg := &einoOpenAI.ChatModelConfig{
		Model:  conn.Model,
		APIKey: conn.APIKey,
		ResponseFormat: &einoOpenAI.ChatCompletionResponseFormat{
			Type: einoOpenAI.ChatCompletionResponseFormatTypeText,
		},
	}

	if conn.BaseURL != "" {
		cfg.BaseURL = conn.BaseURL
	}
	if conn.MaxTokens > 0 {
		cfg.MaxTokens = gptr.Of(conn.MaxTokens)
	}
	if len(conn.Headers) > 0 {
		cfg.HTTPClient = &http.Client{Transport: &HeaderTransport{Headers: conn.Headers}}
	}

	applyParamsToOpenAIChatModelConfig(cfg, params)

	return einoOpenAI.NewChatModel(ctx, cfg)
}

func applyParamsToOpenAIChatModelConfig(cfg *einoOpenAI.ChatModelConfig, params *entity.LLMParams) {
	if params == nil {
		return
	}

	if params.Temperature != nil {
		cfg.Temperature = params.Temperature
	}
	if params.MaxTokens != 0 {
		cfg.MaxTokens = gptr.Of(params.MaxTokens)
	}
	if params.TopP != nil {
		cfg.TopP = params.TopP
	}
}

// HeaderTransport adds static headers to every request.
type HeaderTransport struct {
	Headers map[string]string
	Base    http.RoundTripper
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.Headers {
		r.Header.Set(k, ResolveEnvValue(v))
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
