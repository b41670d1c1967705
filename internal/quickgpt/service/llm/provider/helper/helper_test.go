package helper

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnvValue(t *testing.T) {
	t.Setenv("QG_TEST_KEY", "secret")
	t.Setenv("QG_TEST_EMPTY", "")

	assert.Equal(t, "secret", ResolveEnvValue("${QG_TEST_KEY}"))
	assert.Equal(t, "", ResolveEnvValue("${QG_TEST_EMPTY}"))
	assert.Equal(t, "https://fallback", ResolveEnvValue("${QG_TEST_EMPTY:-https://fallback}"))
	assert.Equal(t, "secret", ResolveEnvValue("${QG_TEST_KEY:-unused}"))
	assert.Equal(t, "literal", ResolveEnvValue("literal"))
	assert.Equal(t, "QG_TEST_KEY", EnvKeyName("${QG_TEST_KEY:-x}"))
	assert.Equal(t, "", EnvKeyName("literal"))
}

func TestBuildConnection(t *testing.T) {
	t.Setenv("QG_TEST_KEY", "k-123")
	b := &BasePlugin{PluginName: "demo"}
	cfg := &options.ProviderConfig{
		BaseURL: "${QG_TEST_URL:-https://demo.example/v1}",
		APIKey:  "${QG_TEST_KEY}",
		Models:  []options.ModelDefinition{{ID: "demo-large", MaxTokens: 4096, Reasoning: true}},
	}

	conn, err := b.BuildConnection(cfg, "demo-large")
	require.NoError(t, err)
	assert.Equal(t, "demo", conn.Provider)
	assert.Equal(t, "k-123", conn.APIKey)
	assert.Equal(t, "https://demo.example/v1", conn.BaseURL)
	assert.Equal(t, 4096, conn.MaxTokens)
	assert.True(t, conn.Reasoning)

	conn, err = b.BuildConnection(cfg, "unlisted")
	require.NoError(t, err)
	assert.Equal(t, 0, conn.MaxTokens)
}

func TestHeaderTransport(t *testing.T) {
	t.Setenv("QG_TEST_ORG", "org-7")
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HeaderTransport{Headers: map[string]string{"X-Org": "${QG_TEST_ORG}"}}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "org-7", got.Get("X-Org"))
}
