package mcp

import (
	"fmt"
	"os"
	"sort"

	"github.com/kiosk404/quickgpt/pkg/utils/json"
)

// Config lists external MCP servers whose tools join the registry.
// The file uses the Claude Desktop layout:
//
//	{
//	  "mcpServers": {
//	    "filesystem": {
//	      "command": "npx",
//	      "args": ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"],
//	      "env": {"DEBUG": "1"}
//	    },
//	    "search": {"transport": "sse", "url": "http://localhost:8080/sse"}
//	  }
//	}
type Config struct {
	MCPServers map[string]*ServerConfig `json:"mcpServers"`
}

type ServerConfig struct {
	// Transport is "stdio" (default) or "sse". "type" is accepted as an alias.
	Transport string `json:"transport,omitempty"`
	Type      string `json:"type,omitempty"`

	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	URL string `json:"url,omitempty"`

	// ToolFilter limits which of the server's tools are used. Empty means all.
	ToolFilter []string `json:"toolFilter,omitempty"`
	Disabled   bool     `json:"disabled,omitempty"`
}

func NewConfig() *Config {
	return &Config{MCPServers: make(map[string]*ServerConfig)}
}

// LoadConfig reads path. A missing file is an empty configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to read MCP config file %q: %w", path, err)
	}

	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse MCP config file %q: %w", path, err)
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]*ServerConfig)
	}
	cfg.complete()
	return cfg, nil
}

func (c *Config) complete() {
	for _, srv := range c.MCPServers {
		if srv == nil {
			continue
		}
		if srv.Transport == "" {
			srv.Transport = srv.Type
		}
		if srv.Transport == "" {
			srv.Transport = "stdio"
		}
	}
}

func (c *Config) Validate() []error {
	var errs []error
	for _, name := range c.Names() {
		srv := c.MCPServers[name]
		if srv == nil {
			errs = append(errs, fmt.Errorf("mcpServers.%s: empty server entry", name))
			continue
		}
		switch srv.Transport {
		case "stdio":
			if srv.Command == "" {
				errs = append(errs, fmt.Errorf("mcpServers.%s: command is required for stdio transport", name))
			}
		case "sse":
			if srv.URL == "" {
				errs = append(errs, fmt.Errorf("mcpServers.%s: url is required for sse transport", name))
			}
		default:
			errs = append(errs, fmt.Errorf("mcpServers.%s: unsupported transport %q (must be 'stdio' or 'sse')", name, srv.Transport))
		}
	}
	return errs
}

// Names returns server names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ServerConfig) envList() []string {
	env := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
