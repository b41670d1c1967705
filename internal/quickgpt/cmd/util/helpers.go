package util

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/spf13/cobra"
)

const DefaultErrorExitCode = 1

var fatalErrHandler = fatal

// BehaviorOnFatal replaces the exit behavior of CheckErr. Tests use it to
// capture the message instead of exiting.
func BehaviorOnFatal(f func(string, int)) {
	fatalErrHandler = f
}

// DefaultBehaviorOnFatal restores the os.Exit behavior.
func DefaultBehaviorOnFatal() {
	fatalErrHandler = fatal
}

func fatal(msg string, code int) {
	if len(msg) > 0 {
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		_, _ = color.New(color.FgRed).Fprint(os.Stderr, msg)
	}
	os.Exit(code)
}

// CheckErr prints a user friendly message for err and exits non-zero.
// A nil error is ignored.
func CheckErr(err error) {
	checkErr(err, fatalErrHandler)
}

func checkErr(err error, handleErr func(string, int)) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		handleErr("", DefaultErrorExitCode)
		return
	}
	handleErr(StandardErrorMessage(err), DefaultErrorExitCode)
}

// StandardErrorMessage renders err with a hint for the failures users can fix themselves.
func StandardErrorMessage(err error) string {
	msg := err.Error()
	if !strings.HasPrefix(msg, "error: ") {
		msg = "error: " + msg
	}

	var pe *entity.ProviderError
	switch {
	case errors.As(err, &pe) && pe.Reason == entity.ErrorReason_Auth:
		msg += "\nCheck the API key for provider " + pe.Provider + "."
	case errors.Is(err, errno.ErrSessionNotFound):
		msg += "\nRun 'quickgpt history list' to see the recorded sessions."
	}
	return msg
}

// UsageErrorf returns an error pointing the user at the command help.
func UsageErrorf(cmd *cobra.Command, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s\nSee '%s -h' for help and examples", msg, cmd.CommandPath())
}
