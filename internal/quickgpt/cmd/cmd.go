package cmd

import (
	"io"
	"os"

	"github.com/kiosk404/quickgpt/internal/pkg/config"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/chat"
	cmdhistory "github.com/kiosk404/quickgpt/internal/quickgpt/cmd/history"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/mcpserve"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/models"
	cmdtools "github.com/kiosk404/quickgpt/internal/quickgpt/cmd/tools"
	cmdutil "github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	cmdversion "github.com/kiosk404/quickgpt/internal/quickgpt/cmd/version"
	"github.com/kiosk404/quickgpt/internal/quickgpt/options"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/kiosk404/quickgpt/pkg/utils/cliflag"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagConfig = "config"

	groupSession = "session"
	groupTools   = "tools"
	groupOther   = "other"
)

var rootLong = cmdutil.LongDesc(`
	quickgpt calls an LLM from the command line, in just one command, and keeps
	the conversation going until you leave with @exit.

	The model may call tools while answering: web search in English and Chinese
	and file system operations relative to the working directory, plus the
	tools of any MCP server listed in ~/.quickgpt/mcp.json.

	Model names pick the provider: claude-* uses Anthropic, gemini-* Google,
	gpt-* and o1/o3/o4 OpenAI, glm-* Zhipu, deepseek-* DeepSeek and qwen-*
	DashScope. Keys come from ANTHROPIC_API_KEY, GEMINI_API_KEY,
	OPENAI_API_KEY, ZHIPU_API_KEY and friends; a .env file in the working
	directory is loaded first.

	In a session, @history prints the conversation so far, /memory pins it to
	long-term memory, /clear forgets it and @exit or @quit ends the round.
	Every session is recorded under ~/.quickgpt/history.`)

var rootExample = cmdutil.Examples(`
	# Ask a question, then keep chatting
	quickgpt "What is the capital of France?"

	# Use another model and system prompt
	quickgpt "Summarize README.md" --model_name claude-sonnet-4-5 --sys "Answer in one paragraph."

	# Continue a recorded session
	quickgpt --resume 2025-03-01-10-00-00_a1b2c3

	# Chat without tools, printing plain text
	quickgpt --no-tools --raw "Tell me a joke"`)

// NewDefaultQuickGPTCommand creates the `quickgpt` command with default arguments.
func NewDefaultQuickGPTCommand() *cobra.Command {
	return NewQuickGPTCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewQuickGPTCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := options.NewOptions(config.HomeDir())
	f := cmdutil.NewDefaultFactory(opts)
	ioStreams := genericclioptions.IOStreams{In: in, Out: out, ErrOut: errOut}
	chatOptions := chat.NewChatOptions(f, ioStreams)

	cmds := &cobra.Command{
		Use:          "quickgpt [prompt]",
		Short:        "quickgpt chats with an LLM from the command line",
		Long:         cmdutil.Banner() + "\n" + rootLong,
		Example:      rootExample,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		// Subcommands share the root's configuration and logging setup.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initRuntime(opts)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.FlushLog()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(chatOptions.Complete(cmd, args))
			cmdutil.CheckErr(chatOptions.Validate(args))
			cmdutil.CheckErr(chatOptions.Run(cmd.Context(), args))
		},
	}

	cmds.SetIn(in)
	cmds.SetOut(out)
	cmds.SetErr(errOut)

	flags := cmds.PersistentFlags()
	flags.SetNormalizeFunc(cliflag.WordSepNormalizeFunc)
	flags.String(flagConfig, "", "Path to the configuration file (default: quickgpt.yaml in . or ~/.quickgpt).")
	opts.AddFlags(flags)
	chatOptions.AddFlags(cmds.Flags())

	_ = viper.BindPFlags(flags)
	cobra.OnInitialize(func() {
		config.LoadConfig(viper.GetString(flagConfig), "quickgpt")
	})

	cmds.AddGroup(
		&cobra.Group{ID: groupSession, Title: "Session Commands:"},
		&cobra.Group{ID: groupTools, Title: "Tool Commands:"},
		&cobra.Group{ID: groupOther, Title: "Other Commands:"},
	)
	addToGroup(cmds, groupSession, cmdhistory.NewCmdHistory(f, ioStreams), models.NewCmdModels(f, ioStreams))
	addToGroup(cmds, groupTools, cmdtools.NewCmdTools(f, ioStreams), mcpserve.NewCmdMCPServe(f, ioStreams))
	addToGroup(cmds, groupOther, cmdversion.NewCmdVersion(ioStreams))
	cmds.SetHelpCommandGroupID(groupOther)
	cmds.SetCompletionCommandGroupID(groupOther)

	// "_" and "-" are interchangeable in every flag name, so --model_name works.
	cmds.SetGlobalNormalizationFunc(cliflag.WordSepNormalizeFunc)

	return cmds
}

func addToGroup(parent *cobra.Command, group string, children ...*cobra.Command) {
	for _, c := range children {
		c.GroupID = group
		parent.AddCommand(c)
	}
}

// initRuntime completes opts from config and flags, then starts file logging.
func initRuntime(opts *options.Options) error {
	if err := opts.Complete(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := logger.SetLevel(opts.LogOptions.Level); err != nil {
		return err
	}
	if err := logger.InitLog(opts.LogOptions.Path("quickgpt")); err != nil {
		logger.Warn("file logging disabled: %v", err)
	}
	logger.Debug("history dir %s, log dir %s", opts.HistoryOptions.Dir, opts.LogOptions.Dir)
	return nil
}
