package mcp

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
	"github.com/kiosk404/quickgpt/pkg/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "quickgpt_tools"

// NewServer builds an MCP server whose tools are the registry's own tools.
// Tools bridged in from other MCP servers are not re-exported.
func NewServer(r *tools.Registry) *server.MCPServer {
	s := server.NewMCPServer(serverName, version.Get().GitVersion, server.WithToolCapabilities(false))
	for _, name := range r.Names() {
		def, ok := r.Get(name)
		if !ok || def.Info != nil {
			continue
		}
		s.AddTool(toMCPTool(def), dispatchHandler(r, name))
		logger.DebugX("MCP", "exposing tool %s", name)
	}
	return s
}

// Serve exposes the registry over stdio until ctx is done or in closes.
func Serve(ctx context.Context, r *tools.Registry, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(NewServer(r))
	logger.InfoX("MCP", "serving %d tools over stdio", r.Len())
	return stdio.Listen(ctx, in, out)
}

func toMCPTool(def tools.ToolDefinition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Parameters {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		switch p.Type {
		case "integer", "number":
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		case "object":
			opts = append(opts, mcp.WithObject(p.Name, props...))
		case "array":
			opts = append(opts, mcp.WithArray(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(def.Name, opts...)
}

func dispatchHandler(r *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.MarshalString(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("Error: cannot encode arguments: " + err.Error()), nil
		}
		res, _ := r.Dispatch(ctx, &entity.ToolCall{
			ID:        "mcp_" + uuid.NewString(),
			Name:      name,
			Arguments: args,
		})
		if !res.Success {
			return mcp.NewToolResultError(res.Output), nil
		}
		return mcp.NewToolResultText(res.Output), nil
	}
}
