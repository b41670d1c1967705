package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	"github.com/kiosk404/quickgpt/internal/quickgpt/options"
	historysvc "github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/pkg/cli/genericclioptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, opts *options.Options) *historysvc.FileStore {
	t.Helper()
	store, err := historysvc.Create(opts.HistoryOptions.Dir, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	call := &entity.ToolCall{ID: "call_1", Name: "get_current_directory", Arguments: "{}"}
	res := &entity.ToolResult{ToolCallID: "call_1", ToolName: "get_current_directory", Output: "/tmp/work", Success: true}
	require.NoError(t, store.AppendAll([]*entity.Message{
		entity.NewSystemMessage("be brief"),
		entity.NewUserMessage("where am I?", 1),
		entity.NewAssistantMessage("", []*entity.ToolCall{call}, 1),
		res.ToMessage(1),
		entity.NewAssistantMessage("You are in **/tmp/work**.", nil, 1),
	}))

	now := time.Now()
	require.NoError(t, historysvc.NewSessionIndex(opts.HistoryOptions.IndexPath()).Put(&historysvc.Session{
		ID:        store.ID(),
		File:      store.Path(),
		Model:     "gemini/gemini-2.5-flash",
		Title:     "where am I?",
		Turns:     1,
		CreatedAt: now,
	}))
	return store
}

func newFactory(t *testing.T) (util.Factory, *options.Options) {
	opts := options.NewOptions(t.TempDir())
	return util.NewDefaultFactory(opts), opts
}

func TestListUsesIndex(t *testing.T) {
	f, opts := newFactory(t)
	store := seed(t, opts)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	require.NoError(t, (&ListOptions{factory: f, IOStreams: streams}).Run())
	assert.Contains(t, out.String(), "TITLE")
	assert.Contains(t, out.String(), store.ID())
	assert.Contains(t, out.String(), "where am I?")
}

func TestListFallsBackToFiles(t *testing.T) {
	f, opts := newFactory(t)
	opts.HistoryOptions.Index = false
	store := seed(t, opts)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	require.NoError(t, (&ListOptions{factory: f, IOStreams: streams}).Run())
	assert.Contains(t, out.String(), "SIZE")
	assert.Contains(t, out.String(), store.ID())
}

func TestListEmpty(t *testing.T) {
	f, _ := newFactory(t)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	require.NoError(t, (&ListOptions{factory: f, IOStreams: streams}).Run())
	assert.Contains(t, out.String(), "No sessions recorded.")
}

func TestShow(t *testing.T) {
	f, opts := newFactory(t)
	store := seed(t, opts)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	require.NoError(t, (&ShowOptions{Ref: store.ID(), factory: f, IOStreams: streams}).Run())
	assert.Contains(t, out.String(), "where am I?")
	assert.Contains(t, out.String(), "Calling tool 'get_current_directory'")
	assert.NotContains(t, out.String(), "be brief")
}

func TestShowUnknownSession(t *testing.T) {
	f, _ := newFactory(t)
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	err := (&ShowOptions{Ref: "missing", factory: f, IOStreams: streams}).Run()
	require.Error(t, err)
	assert.Contains(t, util.StandardErrorMessage(err), "quickgpt history list")
}

func TestExportMarkdown(t *testing.T) {
	f, opts := newFactory(t)
	store := seed(t, opts)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	o := &ExportOptions{Ref: store.ID(), Format: FormatMarkdown, factory: f, IOStreams: streams}
	require.NoError(t, o.Run())

	md := out.String()
	assert.Contains(t, md, "# Session "+store.ID())
	assert.Contains(t, md, "> **System:** be brief")
	assert.Contains(t, md, "## User (turn 1)\n\nwhere am I?")
	assert.Contains(t, md, "- Calling tool `get_current_directory` with args `{}`")
	assert.Contains(t, md, "Tool get_current_directory (ok)")
	assert.Contains(t, md, "## Assistant (turn 1)\n\nYou are in **/tmp/work**.")
}

func TestExportHTMLToFile(t *testing.T) {
	f, opts := newFactory(t)
	store := seed(t, opts)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()
	target := filepath.Join(t.TempDir(), "export", "chat.html")

	o := &ExportOptions{Ref: store.Path(), Format: FormatHTML, Output: target, factory: f, IOStreams: streams}
	require.NoError(t, o.Run())
	assert.Empty(t, out.String())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")
	assert.Contains(t, string(data), "<h2>User (turn 1)</h2>")
	assert.Contains(t, string(data), "<strong>/tmp/work</strong>")
}

func TestExportValidateFormat(t *testing.T) {
	cmd := NewCmdExport(nil, genericclioptions.IOStreams{})

	o := &ExportOptions{Format: " MD "}
	require.NoError(t, o.Validate(cmd))
	assert.Equal(t, FormatMarkdown, o.Format)

	o = &ExportOptions{Format: "pdf"}
	err := o.Validate(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestDelete(t *testing.T) {
	f, opts := newFactory(t)
	store := seed(t, opts)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	require.NoError(t, (&DeleteOptions{Refs: []string{store.ID()}, factory: f, IOStreams: streams}).Run())
	assert.Contains(t, out.String(), "session "+store.ID()+" deleted")
	assert.NoFileExists(t, store.Path())

	_, err := f.SessionIndex().Get(store.ID())
	assert.Error(t, err)

	err = (&DeleteOptions{Refs: []string{store.ID()}, factory: f, IOStreams: streams}).Run()
	assert.Error(t, err)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512B", humanSize(512))
	assert.Equal(t, "1.5KB", humanSize(1536))
	assert.Equal(t, "2.0MB", humanSize(2<<20))
}
