package chat

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/conversation"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/pkg/logger"
)

const (
	maxTitleRunes = 60
	maxLineBytes  = 1 << 20
)

// Session is one interactive chat and the resources it owns.
type Session struct {
	loop   *conversation.Loop
	store  *history.FileStore
	index  *history.SessionIndex
	render *Renderer
	in     io.Reader
	model  string
	title  string

	// pendingMaxCalls is set from the config watcher goroutine and applied
	// between turns.
	pendingMaxCalls atomic.Int32

	closers []func()
}

func newSession(loop *conversation.Loop, store *history.FileStore, index *history.SessionIndex, render *Renderer, in io.Reader) *Session {
	return &Session{
		loop:   loop,
		store:  store,
		index:  index,
		render: render,
		in:     in,
	}
}

// Run answers prompt (when given), then reads directives and prompts until
// @exit, end of input or ctx cancellation.
func (s *Session) Run(ctx context.Context, prompt string) error {
	if prompt != "" {
		s.render.Info("> %s", prompt)
		if s.handle(ctx, prompt) {
			return nil
		}
	}

	lines := readLines(s.in)
	for {
		s.render.Prompt()

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			s.render.Info("")
			s.end()
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			s.end()
			return nil
		}
		if s.handle(ctx, line) {
			return nil
		}
	}
}

// handle processes one input line and reports whether the session is over.
func (s *Session) handle(ctx context.Context, line string) bool {
	switch ParseDirective(line) {
	case DirectiveEmpty:
	case DirectiveExit:
		s.end()
		return true
	case DirectiveHistory:
		msgs, err := s.store.ReadAll()
		if err != nil {
			s.render.Error(err)
			break
		}
		s.render.Transcript(msgs)
	case DirectiveMemory:
		s.loop.Memory().StoreShortTerm()
		s.render.Info("The current conversation has been stored to long-term memory and will not be compressed.")
	case DirectiveClear:
		s.loop.Memory().Reset()
		s.render.Info("Conversation memory cleared.")
	case DirectiveInvalid:
		s.render.Warning("WARNING, invalid magical command")
	default:
		return s.turn(ctx, line)
	}
	return false
}

func (s *Session) turn(ctx context.Context, input string) bool {
	if n := s.pendingMaxCalls.Swap(0); n > 0 {
		s.loop.SetMaxToolCalls(int(n))
		logger.InfoX("Chat", "tool call limit changed to %d", n)
	}

	res, err := s.loop.RunTurn(ctx, input)
	if res == nil {
		if ctx.Err() != nil {
			s.render.Info("")
			s.end()
			return true
		}
		if !errors.Is(err, errno.ErrEmptyInput) {
			s.render.Error(err)
		}
		return false
	}

	s.render.Answer(res.Answer)
	if res.Forced {
		s.render.Warning("Tool call limit reached after %d calls, the answer was produced without further tools.", res.ToolCalls)
	}
	if err != nil {
		s.render.Error(err)
	}
	s.touch(input)
	return false
}

// register adds the session to the index. A resumed session keeps its entry.
func (s *Session) register(resumed bool) {
	if s.index == nil {
		return
	}
	if resumed {
		if prev, err := s.index.Get(s.store.ID()); err == nil {
			s.title = prev.Title
			return
		}
	}
	now := time.Now()
	err := s.index.Put(&history.Session{
		ID:           s.store.ID(),
		File:         s.store.Path(),
		Model:        s.model,
		SystemPrompt: s.loop.SystemPrompt(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		logger.WarnX("Chat", "session index unavailable: %v", err)
	}
}

func (s *Session) touch(input string) {
	if s.title == "" {
		s.title = titleOf(input)
	}
	if s.index == nil {
		return
	}
	if err := s.index.Touch(s.store.ID(), s.loop.Turn(), s.title); err != nil {
		logger.WarnX("Chat", "failed to update session index: %v", err)
	}
}

func (s *Session) end() {
	if s.loop.Turn() == 0 {
		s.render.Info("Round ends, nothing was recorded.")
		return
	}
	s.render.Info("Round ends, all the history can be seen in: %s", s.store.Path())
}

// Close releases MCP connections and anything else the session opened.
func (s *Session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func titleOf(input string) string {
	if utf8.RuneCountInString(input) <= maxTitleRunes {
		return input
	}
	runes := []rune(input)
	return string(runes[:maxTitleRunes]) + "..."
}

// readLines feeds lines from r to the returned channel, which is closed at
// end of input. The reader goroutine ends with the process when r blocks.
func readLines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			out <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.WarnX("Chat", "failed to read input: %v", err)
		}
	}()
	return out
}
