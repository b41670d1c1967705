package models

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/provider/helper"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/spf13/cobra"
)

var modelsLong = util.LongDesc(`
	List the model providers quickgpt can talk to and whether their API keys
	are configured.

	Given model names, print the provider each name is routed to instead.
	A name may carry an explicit provider prefix such as "ollama/llama3".`)

var modelsExample = util.Examples(`
	# Show every provider
	quickgpt models

	# Show where model names are routed
	quickgpt models claude-sonnet-4-5 gpt-4o glm-4-plus`)

type ModelsOptions struct {
	factory util.Factory
	genericclioptions.IOStreams
}

func NewCmdModels(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &ModelsOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "models [MODEL_NAME...]",
		DisableFlagsInUseLine: true,
		Short:                 "List model providers or resolve model names",
		Long:                  modelsLong,
		Example:               modelsExample,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(args))
		},
	}
	return cmd
}

func (o *ModelsOptions) Run(args []string) error {
	adapter := o.factory.Adapter()
	if len(args) > 0 {
		return o.resolve(adapter, args)
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("PROVIDER", "API KEY", "BASE URL", "MODELS")
	for _, name := range adapter.Providers() {
		plugin, err := adapter.Plugin(name)
		if err != nil {
			return err
		}
		cfg, err := adapter.ProviderConfig(plugin)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(cfg.Models))
		for _, m := range cfg.Models {
			ids = append(ids, m.ID)
		}
		table.AddRow(name, keyStatus(plugin.RequiresAPIKey(), cfg.APIKey), orDash(helper.ResolveEnvValue(cfg.BaseURL)), orDash(strings.Join(ids, ", ")))
	}
	fmt.Fprintln(o.Out, table)
	fmt.Fprintf(o.Out, "\nDefault model: %s\n", o.factory.Options().ModelOptions.DefaultModel)
	return nil
}

func (o *ModelsOptions) resolve(adapter *llm.Adapter, names []string) error {
	table := uitable.New()
	table.AddRow("NAME", "PROVIDER", "MODEL", "NOTE")
	for _, name := range names {
		route := adapter.Resolve(name)
		note := ""
		if route.Guessed {
			note = "unrecognized name, OpenAI-compatible fallback"
		}
		table.AddRow(name, route.Provider, route.Model, note)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

func keyStatus(required bool, ref string) string {
	if !required {
		return "not required"
	}
	label := "literal"
	if env := helper.EnvKeyName(ref); env != "" {
		label = env
	}
	if helper.ResolveEnvValue(ref) == "" {
		return label + " (missing)"
	}
	return label + " (set)"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
