package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpTool "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/kiosk404/quickgpt/pkg/version"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

type ServerStatus int

const (
	ServerStatusDisconnected ServerStatus = iota
	ServerStatusConnecting
	ServerStatusConnected
	ServerStatusError
)

func (s ServerStatus) String() string {
	switch s {
	case ServerStatusDisconnected:
		return "Disconnected"
	case ServerStatusConnecting:
		return "Connecting"
	case ServerStatusConnected:
		return "Connected"
	case ServerStatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// remoteServer is one external MCP server and the tools it offers.
type remoteServer struct {
	name   string
	config *ServerConfig

	mu     sync.RWMutex
	client *client.Client
	tools  []tool.BaseTool
	status ServerStatus
	err    error
}

func newRemoteServer(name string, cfg *ServerConfig) *remoteServer {
	return &remoteServer{name: name, config: cfg, status: ServerStatusDisconnected}
}

func (s *remoteServer) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *remoteServer) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *remoteServer) Tools() []tool.BaseTool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]tool.BaseTool(nil), s.tools...)
}

// Connect starts the transport, performs the handshake and lists tools.
func (s *remoteServer) Connect(ctx context.Context) error {
	cli, err := s.createClient(ctx)
	if err != nil {
		s.fail(err)
		return fmt.Errorf("[MCP] server %q: failed to create client: %w", s.name, err)
	}
	return s.attach(ctx, cli)
}

// attach completes the connection over an already started client.
func (s *remoteServer) attach(ctx context.Context, cli *client.Client) error {
	s.mu.Lock()
	s.status = ServerStatusConnecting
	s.err = nil
	s.mu.Unlock()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "quickgpt",
		Version: version.Get().GitVersion,
	}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		_ = cli.Close()
		s.fail(err)
		return fmt.Errorf("[MCP] server %q: failed to initialize: %w", s.name, err)
	}

	tools, err := mcpTool.GetTools(ctx, &mcpTool.Config{
		Cli:          cli,
		ToolNameList: s.config.ToolFilter,
	})
	if err != nil {
		_ = cli.Close()
		s.fail(err)
		return fmt.Errorf("[MCP] server %q: failed to get tools: %w", s.name, err)
	}

	s.mu.Lock()
	s.client = cli
	s.tools = tools
	s.status = ServerStatusConnected
	s.mu.Unlock()
	return nil
}

func (s *remoteServer) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = ServerStatusError
	s.err = err
}

func (s *remoteServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.WarnX("MCP", "server %q: failed to close client: %v", s.name, err)
		}
		s.client = nil
	}
	s.tools = nil
	s.status = ServerStatusDisconnected
}

func (s *remoteServer) createClient(ctx context.Context) (*client.Client, error) {
	switch s.config.Transport {
	case "stdio":
		// The stdio client starts its subprocess on creation.
		return client.NewStdioMCPClient(s.config.Command, s.config.envList(), s.config.Args...)
	case "sse":
		cli, err := client.NewSSEMCPClient(s.config.URL)
		if err != nil {
			return nil, err
		}
		if err := cli.Start(ctx); err != nil {
			_ = cli.Close()
			return nil, err
		}
		return cli, nil
	default:
		return nil, fmt.Errorf("unknown transport: %s", s.config.Transport)
	}
}
