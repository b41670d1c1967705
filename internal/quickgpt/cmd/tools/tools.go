package tools

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	toolsvc "github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/spf13/cobra"
)

var listExample = util.Examples(`
	# List the built-in tools
	quickgpt tools list

	# Include the tools of the configured MCP servers
	quickgpt tools list --mcp`)

func NewCmdTools(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "tools",
		DisableFlagsInUseLine: true,
		Short:                 "Inspect the tools offered to the model",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(NewCmdList(f, ioStreams))
	return cmd
}

type ListOptions struct {
	WithMCP bool

	factory util.Factory
	genericclioptions.IOStreams
}

func NewCmdList(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &ListOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "list",
		DisableFlagsInUseLine: true,
		Aliases:               []string{"ls"},
		Short:                 "List available tools",
		Example:               listExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&o.WithMCP, "mcp", o.WithMCP, "Connect to the configured MCP servers and list their tools too.")
	return cmd
}

func (o *ListOptions) Run(ctx context.Context) error {
	registry, err := o.factory.ToolRegistry()
	if err != nil {
		return err
	}

	if o.WithMCP {
		mgr, err := o.factory.MCPManager()
		if err != nil {
			return err
		}
		defer mgr.Close()
		if mgr.Connect(ctx) > 0 {
			if _, err := mgr.Register(ctx, registry); err != nil {
				return err
			}
		}
	}

	printTools(o.Out, registry)
	return nil
}

// printTools writes one row per registered tool.
func printTools(w io.Writer, registry *toolsvc.Registry) {
	if registry.Len() == 0 {
		fmt.Fprintln(w, "No tools available.")
		return
	}
	table := uitable.New()
	table.MaxColWidth = 70
	table.Wrap = true
	table.AddRow("NAME", "OWNER", "PARAMETERS", "DESCRIPTION")
	for _, name := range registry.Names() {
		def, ok := registry.Get(name)
		if !ok {
			continue
		}
		table.AddRow(name, registry.Owner(name), parameters(def), def.Description)
	}
	fmt.Fprintln(w, table)
}

// parameters lists parameter names, marking required ones with '*'.
func parameters(def toolsvc.ToolDefinition) string {
	if def.Info != nil && len(def.Parameters) == 0 {
		return "-"
	}
	names := make([]string, 0, len(def.Parameters))
	for _, p := range def.Parameters {
		if p.Required {
			names = append(names, p.Name+"*")
			continue
		}
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
