// Package logger is the process wide structured logger. Records are written to
// a log file once InitLog is called; warnings and errors are mirrored to the
// console so the user sees them while chatting.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	std     = newLogger()
	console = &consoleHook{out: os.Stderr}
	logFile *os.File
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

func init() {
	std.AddHook(console)
}

// InitLog opens (or creates) the log file at path and routes records to it.
func InitLog(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", path, err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	std.SetOutput(f)
	return nil
}

// FlushLog syncs and closes the log file. Safe to call when InitLog was never called.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return
	}
	_ = logFile.Sync()
	_ = logFile.Close()
	logFile = nil
	std.SetOutput(io.Discard)
}

// SetLevel changes the file log level ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

// SetConsole redirects the console mirror. A nil writer silences it.
func SetConsole(w io.Writer) {
	console.mu.Lock()
	defer console.mu.Unlock()
	console.out = w
}

func Debug(format string, args ...interface{}) { std.Debugf(format, args...) }
func Info(format string, args ...interface{})  { std.Infof(format, args...) }
func Warn(format string, args ...interface{})  { std.Warnf(format, args...) }
func Error(format string, args ...interface{}) { std.Errorf(format, args...) }

func DebugX(module, format string, args ...interface{}) {
	std.WithField("module", module).Debugf(format, args...)
}

func InfoX(module, format string, args ...interface{}) {
	std.WithField("module", module).Infof(format, args...)
}

func WarnX(module, format string, args ...interface{}) {
	std.WithField("module", module).Warnf(format, args...)
}

func ErrorX(module, format string, args ...interface{}) {
	std.WithField("module", module).Errorf(format, args...)
}

// consoleHook prints warn and above to the terminal in color.
type consoleHook struct {
	mu  sync.Mutex
	out io.Writer
}

func (h *consoleHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (h *consoleHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out == nil {
		return nil
	}

	c := color.New(color.FgYellow)
	prefix := "WARNING"
	if e.Level <= logrus.ErrorLevel {
		c = color.New(color.FgRed)
		prefix = "ERROR"
	}
	_, err := c.Fprintf(h.out, "%s: %s\n", prefix, e.Message)
	return err
}
