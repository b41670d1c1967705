package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/russross/blackfriday"
	"github.com/spf13/cobra"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

const markdownExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
	blackfriday.EXTENSION_TABLES |
	blackfriday.EXTENSION_FENCED_CODE |
	blackfriday.EXTENSION_AUTOLINK |
	blackfriday.EXTENSION_STRIKETHROUGH |
	blackfriday.EXTENSION_SPACE_HEADERS

var exportExample = util.Examples(`
	# Export a session as markdown to stdout
	quickgpt history export 2025-03-01-10-00-00_a1b2c3

	# Export a session as a standalone HTML page
	quickgpt history export 2025-03-01-10-00-00_a1b2c3 --format html -o chat.html`)

type ExportOptions struct {
	Ref    string
	Format string
	Output string

	factory util.Factory
	genericclioptions.IOStreams
}

func NewCmdExport(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &ExportOptions{factory: f, IOStreams: ioStreams, Format: FormatMarkdown}

	cmd := &cobra.Command{
		Use:                   "export SESSION [--format markdown|html] [-o FILE]",
		DisableFlagsInUseLine: true,
		Short:                 "Export a recorded session as markdown or HTML",
		Example:               exportExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.Ref = args[0]
			util.CheckErr(o.Validate(cmd))
			util.CheckErr(o.Run())
		},
	}
	cmd.Flags().StringVar(&o.Format, "format", o.Format, "Output format: markdown or html.")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Write to this file instead of stdout.")
	return cmd
}

func (o *ExportOptions) Validate(cmd *cobra.Command) error {
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	switch o.Format {
	case FormatMarkdown, "md":
		o.Format = FormatMarkdown
	case FormatHTML:
	default:
		return util.UsageErrorf(cmd, "unsupported format %q, must be markdown or html", o.Format)
	}
	return nil
}

func (o *ExportOptions) Run() error {
	msgs, err := readSession(o.factory, o.Ref)
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(filepath.Base(o.Ref), filepath.Ext(o.Ref))
	doc := []byte(Markdown(title, msgs))
	if o.Format == FormatHTML {
		doc = HTML(title, doc)
	}

	if o.Output == "" {
		_, err := o.Out.Write(doc)
		return err
	}
	return writeFile(o.Output, doc)
}

// Markdown renders a conversation as a markdown document.
func Markdown(title string, msgs []*entity.Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Session %s\n\n", title)

	for _, m := range msgs {
		switch m.Role {
		case entity.RoleSystem:
			fmt.Fprintf(&sb, "> **System:** %s\n\n", oneLine(m.Content))
		case entity.RoleUser:
			fmt.Fprintf(&sb, "## User (turn %d)\n\n%s\n\n", m.Turn, m.Content)
		case entity.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				fmt.Fprintf(&sb, "## Assistant (turn %d)\n\n%s\n\n", m.Turn, m.Content)
				continue
			}
			if m.Content != "" {
				fmt.Fprintf(&sb, "%s\n\n", m.Content)
			}
			for _, tc := range m.ToolCalls {
				fmt.Fprintf(&sb, "- Calling tool `%s` with args `%s`\n", tc.Name, oneLine(tc.Arguments))
			}
			sb.WriteString("\n")
		case entity.RoleTool:
			status := "ok"
			if m.Success != nil && !*m.Success {
				status = "failed"
			}
			fmt.Fprintf(&sb, "<details><summary>Tool %s (%s)</summary>\n\n```\n%s\n```\n\n</details>\n\n", m.Name, status, m.Content)
		}
	}
	return sb.String()
}

// HTML wraps rendered markdown in a complete page.
func HTML(title string, markdown []byte) []byte {
	flags := blackfriday.HTML_COMPLETE_PAGE | blackfriday.HTML_USE_XHTML | blackfriday.HTML_USE_SMARTYPANTS
	renderer := blackfriday.HtmlRenderer(flags, "Session "+title, "")
	return blackfriday.Markdown(markdown, renderer, markdownExtensions)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeFile(path string, data []byte) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = f.Write(data)
	return err
}
