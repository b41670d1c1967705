package models

import (
	"testing"

	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/options"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProviders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_KEY", "")
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	o := &ModelsOptions{factory: util.NewDefaultFactory(options.NewOptions(t.TempDir())), IOStreams: streams}
	require.NoError(t, o.Run(nil))

	text := out.String()
	assert.Contains(t, text, "ANTHROPIC_API_KEY (set)")
	assert.Contains(t, text, "OPENAI_API_KEY (missing)")
	assert.Contains(t, text, "not required")
	assert.Contains(t, text, "Default model: gemini-2.5-flash")
}

func TestResolveNames(t *testing.T) {
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	o := &ModelsOptions{factory: util.NewDefaultFactory(options.NewOptions(t.TempDir())), IOStreams: streams}
	require.NoError(t, o.Run([]string{"claude-sonnet-4-5", "mystery-model"}))

	text := out.String()
	assert.Contains(t, text, "anthropic")
	assert.Contains(t, text, "OpenAI-compatible fallback")
}

func TestKeyStatus(t *testing.T) {
	t.Setenv("SOME_KEY", "x")
	assert.Equal(t, "not required", keyStatus(false, ""))
	assert.Equal(t, "SOME_KEY (set)", keyStatus(true, "${SOME_KEY}"))
	assert.Equal(t, "literal (set)", keyStatus(true, "abc"))
	assert.Equal(t, "literal (missing)", keyStatus(true, ""))
}
