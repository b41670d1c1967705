package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ToolOptions controls which tools are offered to the model and how far a
// single user turn may chain tool calls.
type ToolOptions struct {
	// Enabled turns tool calling on or off for the whole session.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Allow lists tools that are explicitly offered. Empty means all.
	Allow []string `json:"allow" mapstructure:"allow"`
	// Deny lists tools that are never offered.
	Deny []string `json:"deny" mapstructure:"deny"`
	// MaxChainedCalls bounds tool executions within one user turn.
	MaxChainedCalls int `json:"max-chained-calls" mapstructure:"max-chained-calls"`
	// Workdir is the directory filesystem tools resolve relative paths against.
	Workdir string `json:"workdir" mapstructure:"workdir"`
	// SearchMaxResults is the default for web_search_english.
	SearchMaxResults int `json:"search-max-results" mapstructure:"search-max-results"`
	// SearchEndpoint overrides the DuckDuckGo HTML endpoint.
	SearchEndpoint string `json:"search-endpoint" mapstructure:"search-endpoint"`
	// ZhipuEndpoint overrides the Zhipu web-search-pro endpoint.
	ZhipuEndpoint string `json:"zhipu-endpoint" mapstructure:"zhipu-endpoint"`
}

func NewToolOptions() *ToolOptions {
	return &ToolOptions{
		Enabled:          true,
		MaxChainedCalls:  8,
		SearchMaxResults: 5,
		SearchEndpoint:   "https://html.duckduckgo.com/html/",
		ZhipuEndpoint:    "https://open.bigmodel.cn/api/paas/v4/tools",
	}
}

// IsAllowed reports whether a tool passes the allow/deny lists.
func (o *ToolOptions) IsAllowed(name string) bool {
	for _, d := range o.Deny {
		if d == name {
			return false
		}
	}
	if len(o.Allow) == 0 {
		return true
	}
	for _, a := range o.Allow {
		if a == name {
			return true
		}
	}
	return false
}

func (o *ToolOptions) Validate() []error {
	var errs []error
	if o.MaxChainedCalls < 1 {
		errs = append(errs, fmt.Errorf("tools.max-chained-calls must be at least 1, got %d", o.MaxChainedCalls))
	}
	if o.SearchMaxResults < 1 {
		errs = append(errs, fmt.Errorf("tools.search-max-results must be at least 1, got %d", o.SearchMaxResults))
	}
	for _, a := range o.Allow {
		for _, d := range o.Deny {
			if a == d {
				errs = append(errs, fmt.Errorf("tool %q is in both allow and deny lists", a))
			}
		}
	}
	return errs
}

func (o *ToolOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "tools.enabled", o.Enabled, "Offer tools to the model.")
	fs.StringSliceVar(&o.Allow, "tools.allow", o.Allow, "Only offer these tools.")
	fs.StringSliceVar(&o.Deny, "tools.deny", o.Deny, "Never offer these tools.")
	fs.IntVar(&o.MaxChainedCalls, "tools.max-chained-calls", o.MaxChainedCalls, "Maximum tool calls executed within a single user turn.")
	fs.StringVar(&o.Workdir, "tools.workdir", o.Workdir, "Base directory for filesystem tools (default: current directory).")
	fs.IntVar(&o.SearchMaxResults, "tools.search-max-results", o.SearchMaxResults, "Default number of English web search results.")
}
