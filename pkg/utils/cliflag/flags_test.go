package cliflag

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordSepNormalizeFunc(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetNormalizeFunc(WordSepNormalizeFunc)
	name := fs.String("model_name", "", "")

	require.NoError(t, fs.Parse([]string{"--model-name", "gpt-4o"}))
	assert.Equal(t, "gpt-4o", *name)
	require.NoError(t, fs.Parse([]string{"--model_name", "gemini-2.5-flash"}))
	assert.Equal(t, "gemini-2.5-flash", *name)

	assert.NotNil(t, fs.Lookup("model-name"))
	assert.Equal(t, pflag.NormalizedName("log.level"), WordSepNormalizeFunc(fs, "log.level"))
}
