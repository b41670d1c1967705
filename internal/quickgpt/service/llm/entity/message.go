package entity

import (
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation. Tool calls only appear on assistant
// messages; ToolCallID and Name only on tool messages.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []*ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	Name       string      `json:"name,omitempty"`
	// Success is set on tool messages.
	Success   *bool     `json:"success,omitempty"`
	Turn      int       `json:"turn"`
	CreatedAt time.Time `json:"created_at"`
}

// ToolCall is a model request to run a named tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult is the outcome of a dispatched ToolCall.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Output     string `json:"output"`
	Success    bool   `json:"success"`
}

// ToMessage converts r to the tool message that answers its call.
func (r *ToolResult) ToMessage(turn int) *Message {
	ok := r.Success
	return &Message{
		Role:       RoleTool,
		Content:    r.Output,
		ToolCallID: r.ToolCallID,
		Name:       r.ToolName,
		Success:    &ok,
		Turn:       turn,
		CreatedAt:  time.Now(),
	}
}

func NewUserMessage(content string, turn int) *Message {
	return &Message{Role: RoleUser, Content: content, Turn: turn, CreatedAt: time.Now()}
}

func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content, CreatedAt: time.Now()}
}

func NewAssistantMessage(content string, calls []*ToolCall, turn int) *Message {
	return &Message{Role: RoleAssistant, Content: content, ToolCalls: calls, Turn: turn, CreatedAt: time.Now()}
}

// HasToolCalls reports whether m requests tool execution.
func (m *Message) HasToolCalls() bool {
	return m != nil && len(m.ToolCalls) > 0
}
