package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/pkg/logger"
)

const (
	summaryPrefix     = "Historical conversation summary: "
	savedPrefix       = "User requested to save the following conversation content:\n"
	summaryFailedText = "Fail to summarize"
)

// Summarizer turns a prompt into summary text, usually with a tool-less model call.
type Summarizer func(ctx context.Context, prompt []*entity.Message) (string, error)

// Manager holds the conversation context sent to the model.
//
// Short-term memory keeps recent messages verbatim. Long-term memory keeps
// summaries and saved excerpts of older ones. Manager is not safe for
// concurrent use; a session drives it from one goroutine.
type Manager struct {
	short []*entity.Message
	long  []*entity.Message

	threshold int
	maxTokens int
}

func NewManager(opts *options.MemoryOptions) *Manager {
	if opts == nil {
		opts = options.NewMemoryOptions()
	}
	return &Manager{threshold: opts.ShortTermThreshold, maxTokens: opts.SummaryMaxTokens}
}

// Add appends messages to short-term memory.
func (m *Manager) Add(msgs ...*entity.Message) {
	m.short = append(m.short, msgs...)
}

// Context returns long-term followed by short-term memory.
func (m *Manager) Context() []*entity.Message {
	out := make([]*entity.Message, 0, len(m.long)+len(m.short))
	out = append(out, m.long...)
	return append(out, m.short...)
}

// Len is the number of short-term messages.
func (m *Manager) Len() int {
	return len(m.short)
}

func (m *Manager) ShortTerm() []*entity.Message {
	return append([]*entity.Message(nil), m.short...)
}

func (m *Manager) LongTerm() []*entity.Message {
	return append([]*entity.Message(nil), m.long...)
}

// Truncate drops short-term messages after the first n.
func (m *Manager) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(m.short) {
		for i := n; i < len(m.short); i++ {
			m.short[i] = nil
		}
		m.short = m.short[:n]
	}
}

// Reset forgets everything.
func (m *Manager) Reset() {
	m.short = nil
	m.long = nil
}

// MaybeCompact summarizes short-term memory into one long-term message once it
// reaches the threshold. A failed summary is stored as a placeholder so the
// session keeps going. It reports whether compaction happened.
func (m *Manager) MaybeCompact(ctx context.Context, summarize Summarizer) (bool, error) {
	if m.threshold <= 0 || len(m.short) < m.threshold {
		return false, nil
	}

	logger.InfoX("Memory", "short-term memory reached %d messages, summarizing", len(m.short))
	summary, err := summarize(ctx, m.summaryPrompt())
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.WarnX("Memory", "failed to summarize memory: %v", err)
		summary = summaryFailedText
	}

	m.long = append(m.long, entity.NewUserMessage(summaryPrefix+strings.TrimSpace(summary), m.lastTurn()))
	m.short = nil
	logger.InfoX("Memory", "memory summarized, long-term now holds %d entries", len(m.long))
	return true, nil
}

// StoreShortTerm moves short-term memory into long-term memory verbatim.
func (m *Manager) StoreShortTerm() {
	if len(m.short) == 0 {
		return
	}
	turn := m.lastTurn()
	m.long = append(m.long, entity.NewUserMessage(savedPrefix+FormatMessages(m.short), turn))
	m.short = nil
}

func (m *Manager) lastTurn() int {
	turn := 0
	for _, msg := range m.short {
		if msg.Turn > turn {
			turn = msg.Turn
		}
	}
	return turn
}

func (m *Manager) summaryPrompt() []*entity.Message {
	var sb strings.Builder
	sb.WriteString("Please provide a concise summary of the following conversation, extracting only the key information and main points. ")
	sb.WriteString("Return only the summary content, without any additional embellishments.\n")
	if m.maxTokens > 0 {
		sb.WriteString(fmt.Sprintf("Keep the summary under %d tokens. Write in the same language as the conversation.\n", m.maxTokens))
	}
	sb.WriteString("\nConversation content:\n")
	sb.WriteString(FormatMessages(m.short))

	return []*entity.Message{
		entity.NewSystemMessage("You are a precise conversation summarizer. Output only the summary, no preamble."),
		entity.NewUserMessage(sb.String(), m.lastTurn()),
	}
}

// FormatMessages renders messages as "role: \n  content" blocks, listing tool calls.
func FormatMessages(msgs []*entity.Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: \n", msg.Role))
		if msg.Content != "" {
			sb.WriteString("  ")
			sb.WriteString(msg.Content)
			sb.WriteByte('\n')
		}
		for _, tc := range msg.ToolCalls {
			sb.WriteString(fmt.Sprintf("  Calling tool '%s' with args: %s\n", tc.Name, tc.Arguments))
		}
	}
	return strings.TrimSpace(sb.String())
}
