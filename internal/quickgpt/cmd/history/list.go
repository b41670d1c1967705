package history

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	historysvc "github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

var listExample = util.Examples(`
	# List sessions, most recent first
	quickgpt history list

	# Only the five most recent
	quickgpt history list --limit 5`)

type ListOptions struct {
	Limit int

	factory util.Factory
	genericclioptions.IOStreams
}

func NewCmdList(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &ListOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "list",
		DisableFlagsInUseLine: true,
		Aliases:               []string{"ls"},
		Short:                 "List recorded sessions",
		Example:               listExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run())
		},
	}
	cmd.Flags().IntVar(&o.Limit, "limit", o.Limit, "Show at most this many sessions, 0 shows all.")
	return cmd
}

// Run prints the session index. Without an index, or when it is empty or
// unreadable, the history directory itself is listed.
func (o *ListOptions) Run() error {
	if index := o.factory.SessionIndex(); index != nil {
		sessions, err := index.List()
		if err != nil {
			logger.WarnX("History", "session index unavailable, listing files: %v", err)
		} else if len(sessions) > 0 {
			o.printSessions(sessions)
			return nil
		}
	}

	files, err := historysvc.ListFiles(o.factory.Options().HistoryOptions.Dir)
	if err != nil {
		return err
	}
	o.printFiles(files)
	return nil
}

func (o *ListOptions) printSessions(sessions []*historysvc.Session) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("ID", "TURNS", "MODEL", "UPDATED", "TITLE")
	for i, s := range sessions {
		if o.Limit > 0 && i >= o.Limit {
			break
		}
		table.AddRow(s.ID, s.Turns, s.Model, s.UpdatedAt.Local().Format(timeLayout), s.Title)
	}
	fmt.Fprintln(o.Out, table)
}

func (o *ListOptions) printFiles(files []historysvc.SessionFile) {
	if len(files) == 0 {
		fmt.Fprintln(o.Out, "No sessions recorded.")
		return
	}
	table := uitable.New()
	table.AddRow("ID", "SIZE", "MODIFIED")
	for i, f := range files {
		if o.Limit > 0 && i >= o.Limit {
			break
		}
		table.AddRow(f.ID, humanSize(f.Size), f.ModTime.Local().Format(timeLayout))
	}
	fmt.Fprintln(o.Out, table)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
