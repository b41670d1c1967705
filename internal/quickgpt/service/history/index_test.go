package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIndexLifecycle(t *testing.T) {
	idx := NewSessionIndex(filepath.Join(t.TempDir(), "history", "sessions.db"))

	list, err := idx.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	first := time.Now().Add(-time.Hour)
	require.NoError(t, idx.Put(&Session{ID: "a", File: "a.jsonl", Model: "gemini-2.5-flash", CreatedAt: first}))
	require.NoError(t, idx.Put(&Session{ID: "b", File: "b.jsonl", Model: "gpt-4o", CreatedAt: first.Add(time.Minute)}))

	got, err := idx.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", got.Model)

	require.NoError(t, idx.Touch("a", 3, "first question"))
	require.NoError(t, idx.Touch("a", 4, "second question"))

	list, err = idx.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, 4, list[0].Turns)
	assert.Equal(t, "first question", list[0].Title)

	require.NoError(t, idx.Delete("b"))
	_, err = idx.Get("b")
	assert.ErrorIs(t, err, errno.ErrSessionNotFound)
}

func TestSessionIndexTouchUnknown(t *testing.T) {
	idx := NewSessionIndex(filepath.Join(t.TempDir(), "sessions.db"))
	err := idx.Touch("ghost", 1, "")
	assert.ErrorIs(t, err, errno.ErrSessionNotFound)
}
