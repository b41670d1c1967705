package history

import (
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/chat"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/spf13/cobra"
)

var showExample = util.Examples(`
	# Print a session by ID
	quickgpt history show 2025-03-01-10-00-00_a1b2c3

	# Print a history file anywhere on disk
	quickgpt history show ./old/2025-03-01-10-00-00_a1b2c3.jsonl`)

type ShowOptions struct {
	Ref string

	factory util.Factory
	genericclioptions.IOStreams
}

func NewCmdShow(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &ShowOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "show SESSION",
		DisableFlagsInUseLine: true,
		Short:                 "Print a recorded session",
		Example:               showExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.Ref = args[0]
			util.CheckErr(o.Run())
		},
	}
	return cmd
}

func (o *ShowOptions) Run() error {
	msgs, err := readSession(o.factory, o.Ref)
	if err != nil {
		return err
	}
	chat.NewRenderer(o.Out, true).Transcript(visible(msgs))
	return nil
}

// visible drops the system prompt.
func visible(msgs []*entity.Message) []*entity.Message {
	out := make([]*entity.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != entity.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}
