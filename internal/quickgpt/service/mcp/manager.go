package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/logger"
)

// Manager connects to the configured MCP servers and feeds their tools into
// a tools.Registry. A server that fails to connect is logged and skipped.
type Manager struct {
	mu      sync.RWMutex
	servers map[string]*remoteServer
	order   []string
}

func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = NewConfig()
	}
	m := &Manager{servers: make(map[string]*remoteServer, len(cfg.MCPServers))}
	for _, name := range cfg.Names() {
		srv := cfg.MCPServers[name]
		if srv == nil || srv.Disabled {
			continue
		}
		m.servers[name] = newRemoteServer(name, srv)
		m.order = append(m.order, name)
	}
	return m
}

// Connect connects to every server concurrently and reports how many succeeded.
func (m *Manager) Connect(ctx context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.servers) == 0 {
		logger.DebugX("MCP", "no MCP servers configured")
		return 0
	}
	logger.InfoX("MCP", "connecting to %d MCP servers...", len(m.servers))

	var wg sync.WaitGroup
	for _, srv := range m.servers {
		wg.Add(1)
		go func(s *remoteServer) {
			defer wg.Done()
			if err := s.Connect(ctx); err != nil {
				logger.WarnX("MCP", "%v", err)
			}
		}(srv)
	}
	wg.Wait()

	connected := 0
	for _, srv := range m.servers {
		if srv.Status() == ServerStatusConnected {
			connected++
		}
	}
	logger.InfoX("MCP", "%d/%d servers connected", connected, len(m.servers))
	return connected
}

// Register adds the tools of every connected server to r, in server order.
// A tool whose name is already taken is skipped with a warning.
func (m *Manager) Register(ctx context.Context, r *tools.Registry) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	added := 0
	for _, name := range m.order {
		srv := m.servers[name]
		if srv.Status() != ServerStatusConnected {
			continue
		}
		for _, bt := range srv.Tools() {
			it, ok := bt.(tool.InvokableTool)
			if !ok {
				continue
			}
			err := r.RegisterInvokable(ctx, name, it)
			if errors.Is(err, errno.ErrDuplicateTool) {
				logger.WarnX("MCP", "server %q: %v", name, err)
				continue
			}
			if err != nil {
				return added, fmt.Errorf("register tools of MCP server %q: %w", name, err)
			}
			added++
		}
	}
	return added, nil
}

func (m *Manager) ServerNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

func (m *Manager) ServerStatus(name string) ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	srv, ok := m.servers[name]
	if !ok {
		return ServerStatusDisconnected
	}
	return srv.Status()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, srv := range m.servers {
		srv.Close()
	}
	return nil
}
