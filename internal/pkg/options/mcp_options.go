package options

import (
	"path/filepath"

	"github.com/spf13/pflag"
)

// MCPOptions holds options for the MCP (Model Context Protocol) subsystem.
// MCP servers are declared in a standalone Claude Desktop style file.
type MCPOptions struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	ConfigFile string `json:"config-file" mapstructure:"config-file"`
}

func NewMCPOptions(home string) *MCPOptions {
	return &MCPOptions{
		Enabled:    true,
		ConfigFile: filepath.Join(home, "mcp.json"),
	}
}

func (o *MCPOptions) Validate() []error {
	return nil
}

func (o *MCPOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "mcp.enabled", o.Enabled, "Connect to MCP servers listed in the MCP config file.")
	fs.StringVar(&o.ConfigFile, "mcp.config-file", o.ConfigFile, "Path to the MCP configuration file.")
}
