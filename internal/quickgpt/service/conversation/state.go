package conversation

import (
	"fmt"

	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
)

// State is where a session is within a user turn.
type State int

const (
	AwaitingUserInput State = iota
	ProviderCall
	ToolDispatch
	FinalAnswer
	Aborted
)

func (s State) String() string {
	switch s {
	case AwaitingUserInput:
		return "awaiting_user_input"
	case ProviderCall:
		return "provider_call"
	case ToolDispatch:
		return "tool_dispatch"
	case FinalAnswer:
		return "final_answer"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s ends a turn.
func (s State) Terminal() bool {
	return s == FinalAnswer || s == Aborted
}

var transitions = map[State][]State{
	AwaitingUserInput: {ProviderCall},
	ProviderCall:      {ToolDispatch, FinalAnswer, Aborted},
	ToolDispatch:      {ProviderCall, Aborted},
	FinalAnswer:       {AwaitingUserInput},
	Aborted:           {AwaitingUserInput},
}

// Machine tracks the turn state and rejects transitions the loop never makes.
type Machine struct {
	state    State
	onChange func(from, to State)
}

func NewMachine(onChange func(from, to State)) *Machine {
	return &Machine{state: AwaitingUserInput, onChange: onChange}
}

func (m *Machine) State() State {
	return m.state
}

// To moves to next, or fails with errno.ErrInvalidTransition.
func (m *Machine) To(next State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			from := m.state
			m.state = next
			if m.onChange != nil {
				m.onChange(from, next)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", errno.ErrInvalidTransition, m.state, next)
}
