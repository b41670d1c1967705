package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(m *Manager, turns int) {
	for i := 1; i <= turns; i++ {
		m.Add(entity.NewUserMessage("question", i), entity.NewAssistantMessage("answer", nil, i))
	}
}

func TestAddContextTruncate(t *testing.T) {
	m := NewManager(nil)
	fill(m, 2)
	assert.Equal(t, 4, m.Len())

	m.Truncate(2)
	assert.Equal(t, 2, m.Len())
	assert.Len(t, m.Context(), 2)

	m.Truncate(10)
	assert.Equal(t, 2, m.Len())

	m.Reset()
	assert.Empty(t, m.Context())
}

func TestMaybeCompactBelowThreshold(t *testing.T) {
	m := NewManager(&options.MemoryOptions{ShortTermThreshold: 10})
	fill(m, 2)

	called := false
	done, err := m.MaybeCompact(context.Background(), func(context.Context, []*entity.Message) (string, error) {
		called = true
		return "", nil
	})
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, called)
}

func TestMaybeCompactSummarizes(t *testing.T) {
	m := NewManager(&options.MemoryOptions{ShortTermThreshold: 4, SummaryMaxTokens: 100})
	fill(m, 2)

	var prompt []*entity.Message
	done, err := m.MaybeCompact(context.Background(), func(_ context.Context, p []*entity.Message) (string, error) {
		prompt = p
		return " user asked twice ", nil
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, m.Len())

	ctx := m.Context()
	require.Len(t, ctx, 1)
	assert.Equal(t, entity.RoleUser, ctx[0].Role)
	assert.Equal(t, "Historical conversation summary: user asked twice", ctx[0].Content)
	assert.Equal(t, 2, ctx[0].Turn)

	require.Len(t, prompt, 2)
	assert.Contains(t, prompt[1].Content, "under 100 tokens")
	assert.Contains(t, prompt[1].Content, "user: \n  question")
}

func TestMaybeCompactFallback(t *testing.T) {
	m := NewManager(&options.MemoryOptions{ShortTermThreshold: 2})
	fill(m, 1)

	done, err := m.MaybeCompact(context.Background(), func(context.Context, []*entity.Message) (string, error) {
		return "", errors.New("rate limited")
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "Historical conversation summary: Fail to summarize", m.Context()[0].Content)
}

func TestMaybeCompactCancelled(t *testing.T) {
	m := NewManager(&options.MemoryOptions{ShortTermThreshold: 2})
	fill(m, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done, err := m.MaybeCompact(ctx, func(ctx context.Context, _ []*entity.Message) (string, error) {
		return "", ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, done)
	assert.Equal(t, 2, m.Len())
}

func TestStoreShortTerm(t *testing.T) {
	m := NewManager(nil)
	m.Add(entity.NewUserMessage("list files", 1))
	m.Add(entity.NewAssistantMessage("", []*entity.ToolCall{{ID: "c", Name: "list_directory", Arguments: `{"path":"."}`}}, 1))
	m.Add(entity.NewAssistantMessage("one file", nil, 1))

	m.StoreShortTerm()
	assert.Equal(t, 0, m.Len())
	long := m.LongTerm()
	require.Len(t, long, 1)
	assert.True(t, strings.HasPrefix(long[0].Content, "User requested to save the following conversation content:\n"))
	assert.Contains(t, long[0].Content, "Calling tool 'list_directory' with args: {\"path\":\".\"}")

	m.StoreShortTerm()
	assert.Len(t, m.LongTerm(), 1)
}
