package options

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionsDefaults(t *testing.T) {
	o := NewOptions("/tmp/qg")

	require.NoError(t, o.Validate())
	assert.Equal(t, "gemini-2.5-flash", o.ModelOptions.DefaultModel)
	assert.Equal(t, 8, o.ToolOptions.MaxChainedCalls)
	assert.Equal(t, 50, o.MemoryOptions.ShortTermThreshold)
	assert.Equal(t, "/tmp/qg/history", o.HistoryOptions.Dir)
	assert.Equal(t, "/tmp/qg/history/sessions.db", o.HistoryOptions.IndexPath())
	assert.Equal(t, "/tmp/qg/log/quickgpt.log", o.LogOptions.Path("quickgpt"))
}

func TestValidateCollectsErrors(t *testing.T) {
	o := NewOptions("/tmp/qg")
	o.ToolOptions.MaxChainedCalls = 0
	o.LogOptions.Level = "loud"
	o.RetryOptions.MaxAttempts = 0

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max-chained-calls")
	assert.Contains(t, err.Error(), "invalid log level")
	assert.Contains(t, err.Error(), "max-attempts")
}

func TestAddFlagsParses(t *testing.T) {
	o := NewOptions("/tmp/qg")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--tools.max-chained-calls=3", "--tools.deny=delete_item", "--log.level=debug"}))
	assert.Equal(t, 3, o.ToolOptions.MaxChainedCalls)
	assert.False(t, o.ToolOptions.IsAllowed("delete_item"))
	assert.True(t, o.ToolOptions.IsAllowed("read_file"))
	assert.Equal(t, "debug", o.LogOptions.Level)
}
