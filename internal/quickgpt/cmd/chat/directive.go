package chat

import (
	"strings"
)

// Directive is an in-session command typed instead of a prompt.
type Directive int

const (
	// DirectiveNone means the line is a prompt for the model.
	DirectiveNone Directive = iota
	DirectiveEmpty
	DirectiveExit
	DirectiveHistory
	DirectiveMemory
	DirectiveClear
	// DirectiveInvalid is any other line starting with '@'.
	DirectiveInvalid
)

// ParseDirective classifies an input line. Matching is case-insensitive.
func ParseDirective(line string) Directive {
	s := strings.TrimSpace(line)
	if s == "" {
		return DirectiveEmpty
	}
	switch strings.ToLower(s) {
	case "@exit", "@quit":
		return DirectiveExit
	case "@history":
		return DirectiveHistory
	case "/memory":
		return DirectiveMemory
	case "/clear":
		return DirectiveClear
	}
	if strings.HasPrefix(s, "@") {
		return DirectiveInvalid
	}
	return DirectiveNone
}
