package mcpserve

import (
	"context"

	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/mcp"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/spf13/cobra"
)

var mcpServeLong = util.LongDesc(`
	Serve the built-in tools over the Model Context Protocol on stdin/stdout.

	Any MCP client, including another quickgpt configured with this command as
	a stdio server, can then call the file system and web search tools. The
	tools.allow and tools.deny settings apply.`)

var mcpServeExample = util.Examples(`
	# Register quickgpt as a stdio MCP server in a client's mcp.json
	{"mcpServers": {"quickgpt": {"command": "quickgpt", "args": ["mcp-serve"]}}}`)

type ServeOptions struct {
	factory util.Factory
	genericclioptions.IOStreams
}

func NewCmdMCPServe(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &ServeOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "mcp-serve",
		DisableFlagsInUseLine: true,
		Short:                 "Expose the built-in tools as an MCP stdio server",
		Long:                  mcpServeLong,
		Example:               mcpServeExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	return cmd
}

// Run serves until the client closes stdin or ctx is cancelled.
func (o *ServeOptions) Run(ctx context.Context) error {
	registry, err := o.factory.ToolRegistry()
	if err != nil {
		return err
	}
	err = mcp.Serve(ctx, registry, o.In, o.Out)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
