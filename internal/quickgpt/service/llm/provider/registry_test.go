package provider

import (
	"testing"

	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/spi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTreeRegistry(t *testing.T) {
	r := NewInTreeRegistry()

	assert.Equal(t, []string{"anthropic", "deepseek", "gemini", "glm", "ollama", "openai", "qwen"}, r.List())

	for _, name := range r.List() {
		p, err := r.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
		_, ok := p.(spi.ChatModelPlugin)
		assert.True(t, ok, "%s must build chat models", name)
		assert.NotNil(t, p.DefaultConfig())
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	factory := func() spi.ProviderPlugin { return nil }

	require.NoError(t, r.Register("x", factory))
	assert.Error(t, r.Register("x", factory))
	assert.Panics(t, func() { r.MustRegister("x", factory) })

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, errno.ErrProviderNotFound)
	assert.False(t, r.Has("missing"))
}

func TestOnlyOllamaSkipsAPIKey(t *testing.T) {
	r := NewInTreeRegistry()
	for _, name := range r.List() {
		p, err := r.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name != "ollama", p.RequiresAPIKey(), name)
	}
}
