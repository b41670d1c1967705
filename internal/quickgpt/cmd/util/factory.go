package util

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kiosk404/quickgpt/internal/quickgpt/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/mcp"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools/builtin"
)

// Factory builds the services commands need from the completed Options.
// Commands receive the Factory at construction time but must only call it
// from Run, after the root command has loaded the configuration.
type Factory interface {
	Options() *options.Options
	Adapter() *llm.Adapter
	HTTPClient() *http.Client
	// ToolRegistry returns a registry holding the built-in tools that pass
	// the allow/deny lists.
	ToolRegistry() (*tools.Registry, error)
	// MCPManager returns a manager for the configured MCP servers. It is not
	// connected yet.
	MCPManager() (*mcp.Manager, error)
	// SessionIndex returns nil when the index is disabled.
	SessionIndex() *history.SessionIndex
}

type defaultFactory struct {
	opts *options.Options

	once   sync.Once
	client *http.Client
}

func NewDefaultFactory(opts *options.Options) Factory {
	return &defaultFactory{opts: opts}
}

func (f *defaultFactory) Options() *options.Options {
	return f.opts
}

func (f *defaultFactory) Adapter() *llm.Adapter {
	return llm.NewAdapter(provider.NewInTreeRegistry(), f.opts.ModelOptions, f.opts.RetryOptions)
}

func (f *defaultFactory) HTTPClient() *http.Client {
	f.once.Do(func() {
		f.client = &http.Client{Timeout: 30 * time.Second}
	})
	return f.client
}

func (f *defaultFactory) ToolRegistry() (*tools.Registry, error) {
	r := tools.NewRegistry()
	if err := builtin.Register(r, f.opts.ToolOptions, f.HTTPClient()); err != nil {
		return nil, err
	}
	return r, nil
}

func (f *defaultFactory) MCPManager() (*mcp.Manager, error) {
	if !f.opts.MCPOptions.Enabled {
		return mcp.NewManager(nil), nil
	}
	cfg, err := mcp.LoadConfig(f.opts.MCPOptions.ConfigFile)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid MCP config %s: %w", f.opts.MCPOptions.ConfigFile, errors.Join(errs...))
	}
	return mcp.NewManager(cfg), nil
}

func (f *defaultFactory) SessionIndex() *history.SessionIndex {
	if !f.opts.HistoryOptions.Index {
		return nil
	}
	return history.NewSessionIndex(f.opts.HistoryOptions.IndexPath())
}
