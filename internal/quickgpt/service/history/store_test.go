package history

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	now := time.Date(2025, 7, 12, 12, 18, 15, 0, time.Local)
	id := NewSessionID(now)
	assert.Regexp(t, regexp.MustCompile(`^2025-07-12-12-18-15_[a-z0-9]{6}$`), id)
	assert.NotEqual(t, id, NewSessionID(now))
}

func TestAppendReadAllRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	s, err := Create(dir, time.Now())
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(s.Path()))
	assert.Equal(t, FileExt, filepath.Ext(s.Path()))

	ok := true
	msgs := []*entity.Message{
		entity.NewSystemMessage("be helpful"),
		entity.NewUserMessage("list files", 1),
		entity.NewAssistantMessage("", []*entity.ToolCall{{ID: "c1", Name: "list_directory", Arguments: `{"path":"."}`}}, 1),
		{Role: entity.RoleTool, Content: "[FILE] a.txt", ToolCallID: "c1", Name: "list_directory", Success: &ok, Turn: 1},
		entity.NewAssistantMessage("There is one file.", nil, 1),
	}
	require.NoError(t, s.AppendAll(msgs))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, len(msgs))
	for i := range msgs {
		assert.Equal(t, msgs[i].Role, got[i].Role)
		assert.Equal(t, msgs[i].Content, got[i].Content)
		assert.Equal(t, msgs[i].Turn, got[i].Turn)
	}
	require.Len(t, got[2].ToolCalls, 1)
	assert.Equal(t, "c1", got[2].ToolCalls[0].ID)
	assert.Equal(t, "c1", got[3].ToolCallID)
	require.NotNil(t, got[3].Success)
	assert.True(t, *got[3].Success)
}

func TestAppendIsAppendOnly(t *testing.T) {
	s, err := Create(t.TempDir(), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Append(entity.NewUserMessage("one", 1)))

	reopened, err := Open(s.Path())
	require.NoError(t, err)
	require.NoError(t, reopened.Append(entity.NewUserMessage("two", 2)))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Content)
	assert.Equal(t, "two", got[1].Content)
}

func TestReadAllMissingFile(t *testing.T) {
	s, err := Create(t.TempDir(), time.Now())
	require.NoError(t, err)
	got, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadAllSkipsTruncatedTail(t *testing.T) {
	s, err := Create(t.TempDir(), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Append(entity.NewUserMessage("ok", 1)))

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"role":"assistant","cont`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := s.ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReadAllHandlesHugeRecords(t *testing.T) {
	if testing.Short() {
		t.Skip("writes a 65 MiB record")
	}
	s, err := Create(t.TempDir(), time.Now())
	require.NoError(t, err)
	huge := strings.Repeat("x", 65<<20)
	require.NoError(t, s.Append(entity.NewUserMessage("read it", 1)))
	require.NoError(t, s.Append(entity.NewAssistantMessage(huge, nil, 1)))
	require.NoError(t, s.Append(entity.NewUserMessage("after", 2)))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Len(t, got[1].Content, len(huge))
	assert.Equal(t, "after", got[2].Content)
}

func TestReadAllRejectsCorruptMiddle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"role\":\"user\",\"content\":\"x\",\"turn\":1}\n"), 0o644))
	s, err := Open(path)
	require.NoError(t, err)

	_, err = s.ReadAll()
	assert.Error(t, err)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.ErrorIs(t, err, errno.ErrSessionNotFound)
}

func TestListFilesAndResolve(t *testing.T) {
	dir := t.TempDir()
	older, err := Create(dir, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	newer, err := Create(dir, time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.NoError(t, older.Append(entity.NewUserMessage("a", 1)))
	require.NoError(t, newer.Append(entity.NewUserMessage("b", 1)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, newer.ID(), files[0].ID)
	assert.Equal(t, older.ID(), files[1].ID)

	p, err := Resolve(dir, older.ID())
	require.NoError(t, err)
	assert.Equal(t, older.Path(), p)

	p, err = Resolve(dir, newer.Path())
	require.NoError(t, err)
	assert.Equal(t, newer.Path(), p)

	_, err = Resolve(dir, "missing")
	assert.ErrorIs(t, err, errno.ErrSessionNotFound)
}

func TestListFilesMissingDir(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
