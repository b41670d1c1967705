package conversation

import (
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
)

type EventKind string

const (
	EventState      EventKind = "state"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventCompacted  EventKind = "compacted"
)

// Event reports loop progress to an Observer.
type Event struct {
	Kind   EventKind
	From   State
	To     State
	Call   *entity.ToolCall
	Result *entity.ToolResult
	// Skipped is set on tool results produced without running the tool.
	Skipped bool
}

// Observer receives events synchronously from the loop goroutine.
type Observer func(Event)
