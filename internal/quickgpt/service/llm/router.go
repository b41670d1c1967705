package llm

import (
	"regexp"
	"strings"

	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/anthropic"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/deepseek"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/gemini"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/glm"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/openai"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/qwen"
)

// Route is the provider a model name resolves to.
type Route struct {
	Provider string
	Model    string
	// Guessed is set when nothing in the name identified a provider.
	Guessed bool
}

var openAIReasoning = regexp.MustCompile(`^o[134](-|$)`)

// ResolveModel maps a user supplied model name to a provider.
// An explicit "provider/model" prefix wins when known reports the provider as registered.
// Unrecognized names fall back to the OpenAI-compatible provider.
func ResolveModel(name string, known func(string) bool) Route {
	name = strings.TrimSpace(name)
	if prefix, rest, ok := strings.Cut(name, "/"); ok && known != nil && known(prefix) && rest != "" {
		return Route{Provider: prefix, Model: rest}
	}

	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "claude"):
		return Route{Provider: anthropic.Name, Model: name}
	case strings.Contains(lower, "gemini"):
		return Route{Provider: gemini.Name, Model: name}
	case strings.Contains(lower, "gpt") || openAIReasoning.MatchString(lower):
		return Route{Provider: openai.Name, Model: name}
	case strings.HasPrefix(lower, "glm"):
		return Route{Provider: glm.Name, Model: name}
	case strings.Contains(lower, "deepseek"):
		return Route{Provider: deepseek.Name, Model: name}
	case strings.HasPrefix(lower, "qwen") || strings.HasPrefix(lower, "qwq"):
		return Route{Provider: qwen.Name, Model: name}
	default:
		return Route{Provider: openai.Name, Model: name, Guessed: true}
	}
}
