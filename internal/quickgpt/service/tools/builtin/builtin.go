package builtin

import (
	"fmt"
	"net/http"

	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/logger"
)

// Definitions returns every built-in tool, configured from opts.
func Definitions(opts *options.ToolOptions, client *http.Client) ([]tools.ToolDefinition, error) {
	ws, err := NewWorkspace(opts.Workdir)
	if err != nil {
		return nil, err
	}
	searcher := NewSearcher(client, opts.SearchEndpoint, opts.ZhipuEndpoint, opts.SearchMaxResults)

	defs := searcher.definitions()
	defs = append(defs, ws.definitions()...)
	return defs, nil
}

// Register adds the built-in tools that pass the allow/deny lists to r.
func Register(r *tools.Registry, opts *options.ToolOptions, client *http.Client) error {
	defs, err := Definitions(opts, client)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if !opts.IsAllowed(def.Name) {
			logger.DebugX("Tools", "skipping %s, not allowed by config", def.Name)
			continue
		}
		if err := r.Register(def); err != nil {
			return fmt.Errorf("register builtin tool: %w", err)
		}
	}
	return nil
}
