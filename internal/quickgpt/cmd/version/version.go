package version

import (
	"fmt"

	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
	"github.com/kiosk404/quickgpt/pkg/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct {
	Short  bool
	Output string

	genericclioptions.IOStreams
}

func NewCmdVersion(ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &VersionOptions{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "version",
		DisableFlagsInUseLine: true,
		Short:                 "Print the quickgpt version",
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Validate(cmd))
			util.CheckErr(o.Run())
		},
	}
	cmd.Flags().BoolVar(&o.Short, "short", o.Short, "Print just the version number.")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "One of '' or 'json'.")
	return cmd
}

func (o *VersionOptions) Validate(cmd *cobra.Command) error {
	if o.Output != "" && o.Output != "json" {
		return util.UsageErrorf(cmd, "--output must be '' or 'json'")
	}
	return nil
}

func (o *VersionOptions) Run() error {
	info := version.Get()
	switch {
	case o.Output == "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(o.Out, string(data))
	case o.Short:
		fmt.Fprintln(o.Out, info.String())
	default:
		fmt.Fprintln(o.Out, info.Text())
	}
	return nil
}
