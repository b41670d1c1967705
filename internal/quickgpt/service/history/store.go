package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
)

const (
	// FileExt is the extension of session history files.
	FileExt = ".jsonl"

	timeLayout = "2006-01-02-15-04-05"
)

// Store is an append-only log of one session's messages.
type Store interface {
	Append(msg *entity.Message) error
	ReadAll() ([]*entity.Message, error)
	Path() string
}

// FileStore keeps one JSON record per line. Every Append opens the file,
// writes, syncs and closes it, so a crash loses at most the message in flight.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*FileStore)(nil)

// NewSessionID returns "<YYYY-MM-DD-HH-MM-SS>_<6 chars of [a-z0-9]>".
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return now.Format(timeLayout) + "_" + suffix
}

// Create starts a new session file under dir. The file itself appears on the first Append.
func Create(dir string, now time.Time) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir %s: %w", dir, err)
	}
	return &FileStore{path: filepath.Join(dir, NewSessionID(now)+FileExt)}, nil
}

// Open returns a store appending to an existing session file.
func Open(path string) (*FileStore, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errno.ErrSessionNotFound, path)
		}
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

// ID is the file name without its extension.
func (s *FileStore) ID() string {
	return strings.TrimSuffix(filepath.Base(s.path), FileExt)
}

func (s *FileStore) Append(msg *entity.Message) (err error) {
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Role, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close history file: %w", cerr)
		}
	}()

	if _, err = f.Write(line); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("flush history file: %w", err)
	}
	return nil
}

// AppendAll appends msgs in order, stopping at the first failure.
func (s *FileStore) AppendAll(msgs []*entity.Message) error {
	for _, m := range msgs {
		if err := s.Append(m); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll returns the messages in write order. A missing file is an empty
// session. An unreadable final line is treated as an interrupted write and skipped.
func (s *FileStore) ReadAll() ([]*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readFile(s.path)
}

func readFile(path string) ([]*entity.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*entity.Message{}, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	// Lines are unbounded: a tool result may be arbitrarily large.
	reader := bufio.NewReader(f)

	msgs := make([]*entity.Message, 0)
	var pending error
	lineNo := 0
	for {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read history file: %w", readErr)
		}
		if len(line) > 0 {
			lineNo++
			if raw := strings.TrimSpace(string(line)); raw != "" {
				if pending != nil {
					return nil, pending
				}
				var m entity.Message
				if err := json.UnmarshalString(raw, &m); err != nil {
					pending = fmt.Errorf("%s line %d: %w", filepath.Base(path), lineNo, err)
				} else {
					msgs = append(msgs, &m)
				}
			}
		}
		if readErr != nil {
			break
		}
	}
	if pending != nil {
		logger.WarnX("History", "skipping truncated record: %v", pending)
	}
	return msgs, nil
}
