package errno

import (
	"errors"
)

var (
	ErrUnknownTool       = errors.New("unknown tool")
	ErrInvalidArguments  = errors.New("invalid tool arguments")
	ErrDuplicateTool     = errors.New("tool already registered")
	ErrToolCallLimit     = errors.New("tool call limit reached")
	ErrTurnAborted       = errors.New("turn aborted")
	ErrEmptyInput        = errors.New("empty input")
	ErrSessionNotFound   = errors.New("session not found")
	ErrProviderNotFound  = errors.New("provider not found")
	ErrModelNotToolReady = errors.New("model not tool capable")
	ErrInvalidTransition = errors.New("invalid state transition")
)
