package conversation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/memory"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	messages []*entity.Message
	tools    []*schema.ToolInfo
}

type scriptedProvider struct {
	script []func(call int) (*entity.ProviderResponse, error)
	calls  []sent
}

func (p *scriptedProvider) Send(_ context.Context, msgs []*entity.Message, tools []*schema.ToolInfo) (*entity.ProviderResponse, error) {
	n := len(p.calls)
	p.calls = append(p.calls, sent{messages: msgs, tools: tools})
	if n >= len(p.script) {
		return nil, fmt.Errorf("unexpected provider call %d", n+1)
	}
	return p.script[n](n)
}

func final(text string) func(int) (*entity.ProviderResponse, error) {
	return func(int) (*entity.ProviderResponse, error) {
		return &entity.ProviderResponse{Kind: entity.ResponseFinal, Text: text}, nil
	}
}

func toolCalls(calls ...*entity.ToolCall) func(int) (*entity.ProviderResponse, error) {
	return func(int) (*entity.ProviderResponse, error) {
		return &entity.ProviderResponse{Kind: entity.ResponseToolCalls, ToolCalls: calls}, nil
	}
}

func failing(err error) func(int) (*entity.ProviderResponse, error) {
	return func(int) (*entity.ProviderResponse, error) { return nil, err }
}

func counterRegistry(count *int) *tools.Registry {
	r := tools.NewRegistry()
	r.MustRegister(tools.ToolDefinition{
		Name:        "get_current_directory",
		Description: "cwd",
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			*count++
			return "/work", nil
		},
	})
	return r
}

func newStore(t *testing.T) *history.FileStore {
	t.Helper()
	s, err := history.Create(t.TempDir(), time.Now())
	require.NoError(t, err)
	return s
}

func TestPlainTurn(t *testing.T) {
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){final("Hi! How can I help you?")}}
	store := newStore(t)
	var states []State
	l := NewLoop(Config{SystemPrompt: "You are a helpful assistant."}, p, nil, store, nil,
		WithObserver(func(e Event) {
			if e.Kind == EventState {
				states = append(states, e.To)
			}
		}))

	res, err := l.RunTurn(context.Background(), "Hello!")
	require.NoError(t, err)
	assert.Equal(t, "Hi! How can I help you?", res.Answer)
	assert.Equal(t, 1, res.Turn)
	assert.Equal(t, AwaitingUserInput, l.State())
	assert.Equal(t, []State{ProviderCall, FinalAnswer, AwaitingUserInput}, states)

	require.Len(t, p.calls, 1)
	assert.Equal(t, entity.RoleSystem, p.calls[0].messages[0].Role)
	assert.Equal(t, "Hello!", p.calls[0].messages[1].Content)
	assert.Nil(t, p.calls[0].tools)

	saved, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, entity.RoleSystem, saved[0].Role)
	assert.Equal(t, "You are a helpful assistant.", saved[0].Content)
	assert.Equal(t, entity.RoleUser, saved[1].Role)
	assert.Equal(t, entity.RoleAssistant, saved[2].Role)
}

func TestToolTurnPairsEveryCall(t *testing.T) {
	count := 0
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){
		toolCalls(
			&entity.ToolCall{ID: "c1", Name: "get_current_directory"},
			&entity.ToolCall{ID: "c2", Name: "no_such_tool"},
		),
		final("You are in /work."),
	}}
	store := newStore(t)
	l := NewLoop(Config{}, p, counterRegistry(&count), store, nil)

	res, err := l.RunTurn(context.Background(), "where am I?")
	require.NoError(t, err)
	assert.Equal(t, "You are in /work.", res.Answer)
	assert.Equal(t, 2, res.ToolCalls)
	assert.Equal(t, 1, count)
	assert.False(t, res.Forced)

	require.Len(t, p.calls, 2)
	assert.Len(t, p.calls[0].tools, 1)
	second := p.calls[1].messages
	// system, user, assistant(tool calls), tool c1, tool c2
	require.Len(t, second, 5)
	assert.Equal(t, "c1", second[3].ToolCallID)
	assert.True(t, *second[3].Success)
	assert.Equal(t, "c2", second[4].ToolCallID)
	assert.False(t, *second[4].Success)

	saved, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, saved, 6)
	assertToolCallsAnswered(t, saved)
	assertTurnsMonotonic(t, saved)
}

func TestToolCallLimitForcesFinalAnswer(t *testing.T) {
	count := 0
	call := func(id string) *entity.ToolCall { return &entity.ToolCall{ID: id, Name: "get_current_directory"} }
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){
		toolCalls(call("a"), call("b")),
		toolCalls(call("c"), call("d")),
		// Still asking for tools despite the limit; only the text is used.
		func(int) (*entity.ProviderResponse, error) {
			return &entity.ProviderResponse{Kind: entity.ResponseToolCalls, Text: "best effort", ToolCalls: []*entity.ToolCall{call("e")}}, nil
		},
	}}
	store := newStore(t)
	l := NewLoop(Config{MaxToolCalls: 3}, p, counterRegistry(&count), store, nil)

	res, err := l.RunTurn(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.True(t, res.Forced)
	assert.Equal(t, "best effort", res.Answer)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, res.ToolCalls)

	require.Len(t, p.calls, 3)
	assert.NotEmpty(t, p.calls[1].tools)
	assert.Empty(t, p.calls[2].tools)
	assert.Contains(t, p.calls[2].messages[0].Content, "tool call limit")

	saved, err := store.ReadAll()
	require.NoError(t, err)
	assertToolCallsAnswered(t, saved)
	var skipped int
	for _, m := range saved {
		if m.Role == entity.RoleTool && m.Content == limitReachedOutput {
			skipped++
		}
	}
	assert.Equal(t, 1, skipped)
	last := saved[len(saved)-1]
	assert.Equal(t, entity.RoleAssistant, last.Role)
	assert.Empty(t, last.ToolCalls)
}

func TestProviderFailureAbortsTurn(t *testing.T) {
	count := 0
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){
		final("first answer"),
		toolCalls(&entity.ToolCall{ID: "c1", Name: "get_current_directory"}),
		failing(entity.NewRateLimitError("openai", "gpt-4o", "slow down")),
		final("second answer"),
	}}
	store := newStore(t)
	mem := memory.NewManager(nil)
	var states []State
	l := NewLoop(Config{}, p, counterRegistry(&count), store, mem, WithObserver(func(e Event) {
		if e.Kind == EventState {
			states = append(states, e.To)
		}
	}))

	_, err := l.RunTurn(context.Background(), "one")
	require.NoError(t, err)
	before, err := store.ReadAll()
	require.NoError(t, err)
	memBefore := mem.Len()

	states = nil
	_, err = l.RunTurn(context.Background(), "two")
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrTurnAborted)
	assert.True(t, entity.IsRateLimitError(err))
	assert.Equal(t, []State{ProviderCall, ToolDispatch, ProviderCall, Aborted, AwaitingUserInput}, states)

	after, err := store.ReadAll()
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, memBefore, mem.Len())
	assert.Equal(t, 1, l.Turn())

	res, err := l.RunTurn(context.Background(), "three")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Turn)
	assert.Equal(t, "second answer", res.Answer)
	last := p.calls[3].messages
	assert.Equal(t, "one", last[1].Content)
	assert.Equal(t, "three", last[3].Content)
}

func TestCancelledDuringToolDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := tools.NewRegistry()
	r.MustRegister(tools.ToolDefinition{
		Name: "slow",
		Handler: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
			cancel()
			return nil, ctx.Err()
		},
	})
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){
		toolCalls(&entity.ToolCall{ID: "c1", Name: "slow"}),
	}}
	store := newStore(t)
	l := NewLoop(Config{}, p, r, store, nil)

	_, err := l.RunTurn(ctx, "go")
	assert.ErrorIs(t, err, errno.ErrTurnAborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, l.Memory().Len())
	assert.Equal(t, AwaitingUserInput, l.State())
	saved, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestDisableToolsSendsNoSchemas(t *testing.T) {
	count := 0
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){final("ok")}}
	l := NewLoop(Config{DisableTools: true}, p, counterRegistry(&count), nil, nil)

	_, err := l.RunTurn(context.Background(), "hi")
	require.NoError(t, err)
	assert.Nil(t, p.calls[0].tools)
}

func TestEmptyInputRejected(t *testing.T) {
	l := NewLoop(Config{}, &scriptedProvider{}, nil, nil, nil)
	_, err := l.RunTurn(context.Background(), "   ")
	assert.ErrorIs(t, err, errno.ErrEmptyInput)
}

func TestCompactionBeforeTurn(t *testing.T) {
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){
		final("a1"),
		final("summary of a1"),
		final("a2"),
	}}
	mem := memory.NewManager(&options.MemoryOptions{ShortTermThreshold: 2})
	compacted := false
	l := NewLoop(Config{}, p, nil, nil, mem, WithObserver(func(e Event) {
		if e.Kind == EventCompacted {
			compacted = true
		}
	}))

	_, err := l.RunTurn(context.Background(), "q1")
	require.NoError(t, err)
	_, err = l.RunTurn(context.Background(), "q2")
	require.NoError(t, err)

	assert.True(t, compacted)
	assert.Nil(t, p.calls[1].tools)
	third := p.calls[2].messages
	require.Len(t, third, 3)
	assert.Equal(t, "Historical conversation summary: summary of a1", third[1].Content)
	assert.Equal(t, "q2", third[2].Content)
}

func TestResumeContinuesTurns(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.AppendAll([]*entity.Message{
		entity.NewSystemMessage("sys"),
		entity.NewUserMessage("old", 4),
		entity.NewAssistantMessage("old answer", nil, 4),
	}))
	prior, err := store.ReadAll()
	require.NoError(t, err)

	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){final("new answer")}}
	l := NewLoop(Config{SystemPrompt: "sys"}, p, nil, store, nil)
	l.Resume(prior)

	res, err := l.RunTurn(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Turn)
	assert.Len(t, p.calls[0].messages, 4)

	saved, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, saved, 5)
	assertTurnsMonotonic(t, saved)
}

func TestResumeWithNewSystemPrompt(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.AppendAll([]*entity.Message{
		entity.NewSystemMessage("old sys"),
		entity.NewUserMessage("old", 2),
		entity.NewAssistantMessage("old answer", nil, 2),
	}))
	prior, err := store.ReadAll()
	require.NoError(t, err)

	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){final("a"), final("b")}}
	l := NewLoop(Config{SystemPrompt: "new sys"}, p, nil, store, nil)
	l.Resume(prior)
	_, err = l.RunTurn(context.Background(), "q1")
	require.NoError(t, err)
	_, err = l.RunTurn(context.Background(), "q2")
	require.NoError(t, err)

	saved, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, saved, 8)
	assert.Equal(t, entity.RoleSystem, saved[3].Role)
	assert.Equal(t, "new sys", saved[3].Content)
	assert.Equal(t, 2, saved[3].Turn)
	assert.Equal(t, "q1", saved[4].Content)
	assertTurnsMonotonic(t, saved)

	// Resuming again with the same prompt writes nothing extra.
	again := NewLoop(Config{SystemPrompt: "new sys"}, &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){final("c")}}, nil, store, nil)
	again.Resume(saved)
	_, err = again.RunTurn(context.Background(), "q3")
	require.NoError(t, err)
	all, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Equal(t, entity.RoleUser, all[8].Role)
}

func TestFailuresStayOffConsole(t *testing.T) {
	var console bytes.Buffer
	logger.SetConsole(&console)
	defer logger.SetConsole(os.Stderr)

	r := tools.NewRegistry()
	r.MustRegister(tools.ToolDefinition{
		Name:        "read_file",
		Description: "read",
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			return nil, errors.New("permission denied")
		},
	})
	p := &scriptedProvider{script: []func(int) (*entity.ProviderResponse, error){
		toolCalls(
			&entity.ToolCall{ID: "c1", Name: "read_file"},
			&entity.ToolCall{ID: "c2", Name: "no_such_tool"},
		),
		failing(entity.NewRateLimitError("openai", "gpt-4o", "slow down")),
	}}
	l := NewLoop(Config{}, p, r, newStore(t), nil)

	_, err := l.RunTurn(context.Background(), "hi")
	require.ErrorIs(t, err, errno.ErrTurnAborted)
	assert.Empty(t, console.String())
}

func TestMachineRejectsInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	assert.ErrorIs(t, m.To(ToolDispatch), errno.ErrInvalidTransition)
	require.NoError(t, m.To(ProviderCall))
	require.NoError(t, m.To(FinalAnswer))
	assert.True(t, m.State().Terminal())
	assert.ErrorIs(t, m.To(ProviderCall), errno.ErrInvalidTransition)
}

func assertToolCallsAnswered(t *testing.T, msgs []*entity.Message) {
	t.Helper()
	for i, m := range msgs {
		for _, call := range m.ToolCalls {
			answers := 0
			for _, later := range msgs[i+1:] {
				if later.Turn != m.Turn {
					break
				}
				if later.Role == entity.RoleTool && later.ToolCallID == call.ID {
					answers++
				}
			}
			assert.Equal(t, 1, answers, "tool call %s", call.ID)
		}
	}
}

func assertTurnsMonotonic(t *testing.T, msgs []*entity.Message) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		assert.GreaterOrEqual(t, msgs[i].Turn, msgs[i-1].Turn)
	}
}
