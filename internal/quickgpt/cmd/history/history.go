package history

import (
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/spf13/cobra"
)

var historyLong = util.LongDesc(`
	Inspect recorded conversations.

	Every chat session is written to its own line-delimited JSON file under
	the history directory. These commands list, print, export and delete
	those sessions.`)

func NewCmdHistory(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "history",
		DisableFlagsInUseLine: true,
		Short:                 "Inspect recorded conversations",
		Long:                  historyLong,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(NewCmdList(f, ioStreams))
	cmd.AddCommand(NewCmdShow(f, ioStreams))
	cmd.AddCommand(NewCmdExport(f, ioStreams))
	cmd.AddCommand(NewCmdDelete(f, ioStreams))
	return cmd
}
