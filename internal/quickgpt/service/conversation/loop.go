package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/memory"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
	"github.com/kiosk404/quickgpt/pkg/logger"
)

const (
	DefaultSystemPrompt = "You are a helpful assistant, please ensure you will respond to me as fast as you can."
	DefaultMaxToolCalls = 8

	finalAnswerNote = "The tool call limit for this turn has been reached (%d calls). " +
		"Do not request any more tools. Answer the user now with the information you already have."
	limitReachedOutput = "Error: tool call limit reached, this call was not executed"
)

// Provider sends a conversation to a model. An empty tool list asks for a
// text answer.
type Provider interface {
	Send(ctx context.Context, messages []*entity.Message, tools []*schema.ToolInfo) (*entity.ProviderResponse, error)
}

type Config struct {
	SystemPrompt string
	// MaxToolCalls bounds tool executions per user turn.
	MaxToolCalls int
	// DisableTools sends every request without tool schemas.
	DisableTools bool
}

// TurnResult is what a completed turn produced.
type TurnResult struct {
	Answer string
	Turn   int
	// ToolCalls counts executed tool calls.
	ToolCalls int
	// Forced is set when the tool call limit cut the turn short.
	Forced   bool
	Messages []*entity.Message
	Usage    *entity.TokenUsage
}

type Option func(*Loop)

func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// Loop runs user turns: provider calls, tool dispatch, and persistence.
// It is driven from one goroutine.
type Loop struct {
	cfg      Config
	provider Provider
	registry *tools.Registry
	store    history.Store
	memory   *memory.Manager
	observer Observer
	machine  *Machine

	turn          int
	systemWritten bool
	// systemTurn is the turn recorded on the next persisted system message.
	systemTurn int
}

func NewLoop(cfg Config, provider Provider, registry *tools.Registry, store history.Store, mem *memory.Manager, opts ...Option) *Loop {
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = DefaultMaxToolCalls
	}
	if mem == nil {
		mem = memory.NewManager(nil)
	}
	l := &Loop{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		store:    store,
		memory:   mem,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.machine = NewMachine(func(from, to State) {
		logger.DebugX("Loop", "%s -> %s", from, to)
		l.emit(Event{Kind: EventState, From: from, To: to})
	})
	return l
}

func (l *Loop) State() State            { return l.machine.State() }
func (l *Loop) Turn() int               { return l.turn }
func (l *Loop) Memory() *memory.Manager { return l.memory }
func (l *Loop) SystemPrompt() string    { return l.cfg.SystemPrompt }

// SetMaxToolCalls changes the per-turn bound, effective from the next turn.
func (l *Loop) SetMaxToolCalls(n int) {
	if n > 0 {
		l.cfg.MaxToolCalls = n
	}
}

// Resume seeds memory from a previously persisted session. The latest stored
// system message counts as written; a different prompt is appended with the
// next completed turn.
func (l *Loop) Resume(msgs []*entity.Message) {
	var stored *entity.Message
	for _, m := range msgs {
		if m.Role == entity.RoleSystem {
			stored = m
			continue
		}
		l.memory.Add(m)
		if m.Turn > l.turn {
			l.turn = m.Turn
		}
	}
	l.systemWritten = stored != nil && stored.Content == l.cfg.SystemPrompt
	l.systemTurn = l.turn
}

// RunTurn answers one user input. On a provider failure the turn is rolled
// back: memory returns to its state before the input and nothing is written
// to history. The returned error then wraps errno.ErrTurnAborted.
func (l *Loop) RunTurn(ctx context.Context, input string) (*TurnResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errno.ErrEmptyInput
	}
	if st := l.machine.State(); st != AwaitingUserInput {
		return nil, fmt.Errorf("%w: turn started in state %s", errno.ErrInvalidTransition, st)
	}

	if err := l.compact(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", errno.ErrTurnAborted, err)
	}

	snapshot := l.memory.Len()
	turn := l.turn + 1
	result := &TurnResult{Turn: turn}
	l.record(result, entity.NewUserMessage(input, turn))

	if err := l.machine.To(ProviderCall); err != nil {
		return nil, err
	}

	executed := 0
	forced := false
	for {
		resp, err := l.send(ctx, forced)
		if err != nil {
			return nil, l.abort(snapshot, err)
		}
		addUsage(result, resp.Usage)

		if resp.IsFinal() || forced {
			if !resp.IsFinal() {
				logger.WarnX("Loop", "model requested %d tools after the limit, using its text", len(resp.ToolCalls))
			}
			return l.finish(result, resp.Text, executed, forced)
		}

		if err := l.machine.To(ToolDispatch); err != nil {
			return nil, err
		}
		l.record(result, entity.NewAssistantMessage(resp.Text, resp.ToolCalls, turn))

		for _, call := range resp.ToolCalls {
			l.emit(Event{Kind: EventToolCall, Call: call})

			var res *entity.ToolResult
			skipped := executed >= l.cfg.MaxToolCalls
			if skipped {
				res = &entity.ToolResult{ToolCallID: call.ID, ToolName: call.Name, Output: limitReachedOutput}
			} else {
				executed++
				res = l.dispatch(ctx, call)
			}
			if ctx.Err() != nil {
				return nil, l.abort(snapshot, ctx.Err())
			}

			l.emit(Event{Kind: EventToolResult, Call: call, Result: res, Skipped: skipped})
			l.record(result, res.ToMessage(turn))
		}

		if executed >= l.cfg.MaxToolCalls {
			logger.InfoX("Loop", "tool call limit %d reached in turn %d, requesting final answer", l.cfg.MaxToolCalls, turn)
			forced = true
		}
		if err := l.machine.To(ProviderCall); err != nil {
			return nil, err
		}
	}
}

func (l *Loop) send(ctx context.Context, forced bool) (*entity.ProviderResponse, error) {
	msgs := make([]*entity.Message, 0, l.memory.Len()+1)
	system := l.cfg.SystemPrompt
	if forced {
		system += "\n\n" + fmt.Sprintf(finalAnswerNote, l.cfg.MaxToolCalls)
	}
	msgs = append(msgs, entity.NewSystemMessage(system))
	msgs = append(msgs, l.memory.Context()...)

	var schemas []*schema.ToolInfo
	if !forced && !l.cfg.DisableTools && l.registry != nil {
		schemas = l.registry.Schemas()
	}
	return l.provider.Send(ctx, msgs, schemas)
}

func (l *Loop) dispatch(ctx context.Context, call *entity.ToolCall) *entity.ToolResult {
	if l.registry == nil {
		return &entity.ToolResult{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Output:     fmt.Sprintf("Error: %v: %s", errno.ErrUnknownTool, call.Name),
		}
	}
	res, err := l.registry.Dispatch(ctx, call)
	if err != nil {
		logger.InfoX("Loop", "tool call %s rejected: %v", call.Name, err)
	}
	return res
}

func (l *Loop) finish(result *TurnResult, text string, executed int, forced bool) (*TurnResult, error) {
	if err := l.machine.To(FinalAnswer); err != nil {
		return nil, err
	}
	l.record(result, entity.NewAssistantMessage(text, nil, result.Turn))
	result.Answer = text
	result.ToolCalls = executed
	result.Forced = forced
	l.turn = result.Turn

	persistErr := l.persist(result.Messages)
	if err := l.machine.To(AwaitingUserInput); err != nil {
		return nil, err
	}
	if persistErr != nil {
		return result, fmt.Errorf("save history: %w", persistErr)
	}
	return result, nil
}

func (l *Loop) abort(snapshot int, cause error) error {
	l.memory.Truncate(snapshot)
	if err := l.machine.To(Aborted); err != nil {
		logger.ErrorX("Loop", "abort: %v", err)
	}
	_ = l.machine.To(AwaitingUserInput)

	if !errors.Is(cause, context.Canceled) {
		logger.InfoX("Loop", "turn %d aborted: %v", l.turn+1, cause)
	}
	return fmt.Errorf("%w: %w", errno.ErrTurnAborted, cause)
}

func (l *Loop) persist(msgs []*entity.Message) error {
	if l.store == nil {
		return nil
	}
	if !l.systemWritten {
		sys := entity.NewSystemMessage(l.cfg.SystemPrompt)
		sys.Turn = l.systemTurn
		if err := l.store.Append(sys); err != nil {
			return err
		}
		l.systemWritten = true
	}
	for _, m := range msgs {
		if err := l.store.Append(m); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) compact(ctx context.Context) error {
	done, err := l.memory.MaybeCompact(ctx, l.summarize)
	if err != nil {
		return err
	}
	if done {
		l.emit(Event{Kind: EventCompacted})
	}
	return nil
}

func (l *Loop) summarize(ctx context.Context, prompt []*entity.Message) (string, error) {
	resp, err := l.provider.Send(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (l *Loop) record(result *TurnResult, msg *entity.Message) {
	l.memory.Add(msg)
	result.Messages = append(result.Messages, msg)
}

func (l *Loop) emit(e Event) {
	if l.observer != nil {
		l.observer(e)
	}
}

func addUsage(result *TurnResult, u *entity.TokenUsage) {
	if u == nil {
		return
	}
	if result.Usage == nil {
		result.Usage = &entity.TokenUsage{}
	}
	result.Usage.PromptTokens += u.PromptTokens
	result.Usage.CompletionTokens += u.CompletionTokens
	result.Usage.TotalTokens += u.TotalTokens
}
