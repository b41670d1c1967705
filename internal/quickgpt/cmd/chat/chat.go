package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kiosk404/quickgpt/internal/pkg/config"
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/conversation"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/mcp"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/memory"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const flagMaxToolCalls = "max-tool-calls"

type ChatOptions struct {
	ModelName    string
	SystemPrompt string
	Resume       string
	MaxToolCalls int
	NoTools      bool
	Raw          bool

	// limitFromFlag pins MaxToolCalls against config reloads.
	limitFromFlag bool

	factory util.Factory
	genericclioptions.IOStreams
}

func NewChatOptions(f util.Factory, ioStreams genericclioptions.IOStreams) *ChatOptions {
	return &ChatOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

func (o *ChatOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ModelName, "model_name", o.ModelName, "Model to chat with, e.g. gemini-2.5-flash, claude-sonnet-4-5, gpt-4o or provider/model (default: models.default-model).")
	fs.StringVar(&o.SystemPrompt, "sys", o.SystemPrompt, "The system prompt (default: a short helpful-assistant prompt).")
	fs.StringVar(&o.Resume, "resume", o.Resume, "Continue a recorded session, given its ID or history file.")
	fs.IntVar(&o.MaxToolCalls, flagMaxToolCalls, o.MaxToolCalls, "Maximum tool calls executed per user turn (default: tools.max-chained-calls).")
	fs.BoolVar(&o.NoTools, "no-tools", o.NoTools, "Chat without offering any tools to the model.")
	fs.BoolVar(&o.Raw, "raw", o.Raw, "Print answers as plain text instead of rendered markdown.")
}

// Complete fills unset options from the loaded configuration.
func (o *ChatOptions) Complete(cmd *cobra.Command, args []string) error {
	opts := o.factory.Options()
	o.ModelName = strings.TrimSpace(o.ModelName)
	if o.ModelName == "" {
		o.ModelName = opts.ModelOptions.DefaultModel
	}
	o.limitFromFlag = cmd.Flags().Changed(flagMaxToolCalls)
	if !o.limitFromFlag {
		o.MaxToolCalls = opts.ToolOptions.MaxChainedCalls
	}
	if !opts.ToolOptions.Enabled {
		o.NoTools = true
	}
	return nil
}

func (o *ChatOptions) Validate(args []string) error {
	if o.MaxToolCalls < 1 {
		return fmt.Errorf("--%s must be at least 1, got %d", flagMaxToolCalls, o.MaxToolCalls)
	}
	return nil
}

// Run starts a chat session. args, when present, form the first prompt.
func (o *ChatOptions) Run(ctx context.Context, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	render := NewRenderer(o.Out, o.Raw)

	sess, err := o.newSession(ctx, render)
	if err != nil {
		return err
	}
	defer sess.Close()

	config.Watch(o.reload(sess))

	if render.tty {
		fmt.Fprint(o.Out, util.StyledBanner())
		render.Info("  Model:   %s", sess.model)
		render.Info("  History: %s", sess.store.Path())
		render.Info("")
		render.Info("Type a message and press Enter. @history shows the history, /memory pins it, /clear forgets it, @exit quits.")
		render.Separator()
	}
	return sess.Run(ctx, prompt)
}

func (o *ChatOptions) newSession(ctx context.Context, render *Renderer) (*Session, error) {
	opts := o.factory.Options()

	client, err := o.factory.Adapter().Open(ctx, o.ModelName)
	if err != nil {
		return nil, err
	}

	var (
		registry *tools.Registry
		mgr      *mcp.Manager
	)
	if !o.NoTools {
		registry, err = o.factory.ToolRegistry()
		if err != nil {
			return nil, err
		}
		mgr = o.connectMCP(ctx, registry)
	}

	store, previous, err := o.openStore(opts)
	if err != nil {
		if mgr != nil {
			_ = mgr.Close()
		}
		return nil, err
	}

	systemPrompt := o.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = storedSystemPrompt(previous)
	}
	loop := conversation.NewLoop(
		conversation.Config{
			SystemPrompt: systemPrompt,
			MaxToolCalls: o.MaxToolCalls,
			DisableTools: o.NoTools,
		},
		client,
		registry,
		store,
		memory.NewManager(opts.MemoryOptions),
		conversation.WithObserver(render.Observe),
	)
	if len(previous) > 0 {
		loop.Resume(previous)
		render.Info("Resumed %d messages from %s", len(previous), store.Path())
	}

	s := newSession(loop, store, o.factory.SessionIndex(), render, o.In)
	s.model = client.Provider() + "/" + client.Model()
	if mgr != nil {
		s.closers = append(s.closers, func() { _ = mgr.Close() })
	}
	s.register(len(previous) > 0)
	return s, nil
}

// connectMCP joins the tools of the configured MCP servers to registry.
// MCP problems never stop the chat.
func (o *ChatOptions) connectMCP(ctx context.Context, registry *tools.Registry) *mcp.Manager {
	mgr, err := o.factory.MCPManager()
	if err != nil {
		logger.WarnX("Chat", "MCP servers disabled: %v", err)
		return nil
	}
	if mgr.Connect(ctx) == 0 {
		return mgr
	}
	n, err := mgr.Register(ctx, registry)
	if err != nil {
		logger.WarnX("Chat", "%v", err)
	}
	logger.InfoX("Chat", "registered %d MCP tools", n)
	return mgr
}

func (o *ChatOptions) openStore(opts *options.Options) (*history.FileStore, []*entity.Message, error) {
	dir := opts.HistoryOptions.Dir
	if o.Resume == "" {
		store, err := history.Create(dir, time.Now())
		return store, nil, err
	}

	path, err := history.Resolve(dir, o.Resume)
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := store.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read session %s: %w", path, err)
	}
	return store, msgs, nil
}

// reload re-applies the log level and, unless pinned by a flag, the tool
// call limit after the config file changes.
func (o *ChatOptions) reload(s *Session) func() {
	return func() {
		fresh := options.NewOptions(config.HomeDir())
		if err := fresh.Complete(); err != nil {
			logger.WarnX("Chat", "failed to reload config: %v", err)
			return
		}
		if err := logger.SetLevel(fresh.LogOptions.Level); err != nil {
			logger.WarnX("Chat", "ignoring log level %q: %v", fresh.LogOptions.Level, err)
		}
		if !o.limitFromFlag && fresh.ToolOptions.MaxChainedCalls > 0 {
			s.pendingMaxCalls.Store(int32(fresh.ToolOptions.MaxChainedCalls))
		}
	}
}

// storedSystemPrompt returns the latest system prompt of a session.
func storedSystemPrompt(msgs []*entity.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == entity.RoleSystem {
			return msgs[i].Content
		}
	}
	return ""
}
