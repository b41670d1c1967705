package chat

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/conversation"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/memory"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/mitchellh/go-wordwrap"
	"github.com/moby/term"
	"github.com/muesli/termenv"
)

const (
	defaultWidth  = 80
	maxArgPreview = 120
)

// Renderer prints the conversation. On a terminal assistant answers are
// rendered as markdown; otherwise, or with raw set, text is word wrapped.
type Renderer struct {
	out   io.Writer
	width int
	tty   bool
	md    *glamour.TermRenderer

	userLabel      lipgloss.Style
	assistantLabel lipgloss.Style
	toolLabel      lipgloss.Style
	rule           lipgloss.Style
	warn           *color.Color
	fail           *color.Color
}

func NewRenderer(out io.Writer, raw bool) *Renderer {
	r := &Renderer{
		out:            out,
		width:          defaultWidth,
		userLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		toolLabel:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		rule:           lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		warn:           color.New(color.FgYellow),
		fail:           color.New(color.FgRed),
	}

	if fd, ok := term.GetFdInfo(out); ok {
		r.tty = true
		if ws, err := term.GetWinsize(fd); err == nil && ws.Width > 0 {
			r.width = int(ws.Width)
		}
	}
	if !r.tty {
		r.userLabel = lipgloss.NewStyle()
		r.assistantLabel = lipgloss.NewStyle()
		r.toolLabel = lipgloss.NewStyle()
		r.rule = lipgloss.NewStyle()
		r.warn.DisableColor()
		r.fail.DisableColor()
		return r
	}
	if raw {
		return r
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
		glamour.WithWordWrap(r.width-2),
	)
	if err != nil {
		logger.WarnX("Chat", "markdown rendering disabled: %v", err)
		return r
	}
	r.md = md
	return r
}

func (r *Renderer) Width() int {
	return r.width
}

// Prompt prints the input marker.
func (r *Renderer) Prompt() {
	fmt.Fprint(r.out, r.userLabel.Render("> "))
}

func (r *Renderer) Separator() {
	n := r.width - 2
	if n < 20 {
		n = 20
	}
	fmt.Fprintln(r.out, r.rule.Render(strings.Repeat("-", n)))
}

// Answer prints an assistant message.
func (r *Renderer) Answer(text string) {
	fmt.Fprintln(r.out, r.assistantLabel.Render("assistant:"))
	if r.md != nil {
		if rendered, err := r.md.Render(text); err == nil {
			fmt.Fprint(r.out, rendered)
			return
		}
	}
	fmt.Fprintln(r.out, r.wrap(text))
	fmt.Fprintln(r.out)
}

func (r *Renderer) ToolCall(call *entity.ToolCall) {
	args := call.Arguments
	if len(args) > maxArgPreview {
		args = args[:maxArgPreview] + "..."
	}
	fmt.Fprintln(r.out, r.toolLabel.Render(fmt.Sprintf("Calling tool '%s' with args: %s", call.Name, args)))
}

func (r *Renderer) ToolResult(res *entity.ToolResult, skipped bool) {
	switch {
	case skipped:
		_, _ = r.warn.Fprintf(r.out, "Skipped tool '%s': tool call limit reached\n", res.ToolName)
	case !res.Success:
		_, _ = r.fail.Fprintln(r.out, r.wrap(res.Output))
	default:
		fmt.Fprintln(r.out, r.toolLabel.Render(fmt.Sprintf("Tool '%s' returned %d bytes", res.ToolName, len(res.Output))))
	}
}

func (r *Renderer) Warning(format string, args ...interface{}) {
	_, _ = r.warn.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Error(err error) {
	_, _ = r.fail.Fprintf(r.out, "ERROR: %v\n", err)
}

func (r *Renderer) Info(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Transcript prints msgs in the same layout as memory snapshots.
func (r *Renderer) Transcript(msgs []*entity.Message) {
	if len(msgs) == 0 {
		r.Info("No history yet.")
		return
	}
	fmt.Fprint(r.out, r.wrap(memory.FormatMessages(msgs)))
	fmt.Fprintln(r.out)
}

// Observe is a conversation.Observer that reports tool activity as it happens.
func (r *Renderer) Observe(e conversation.Event) {
	switch e.Kind {
	case conversation.EventToolCall:
		r.ToolCall(e.Call)
	case conversation.EventToolResult:
		r.ToolResult(e.Result, e.Skipped)
	case conversation.EventCompacted:
		r.Info("Older messages were summarized into long-term memory.")
	}
}

func (r *Renderer) wrap(s string) string {
	if r.width <= 0 {
		return s
	}
	return wordwrap.WrapString(s, uint(r.width))
}
