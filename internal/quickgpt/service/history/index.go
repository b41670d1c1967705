package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
)

var bucketSessions = []byte("sessions")

// Session is the catalogue entry for one history file.
type Session struct {
	ID           string    `json:"id"`
	File         string    `json:"file"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt"`
	Title        string    `json:"title"`
	Turns        int       `json:"turns"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionIndex catalogues sessions in a bolt file. The JSONL files stay the
// source of truth; a missing or locked index only loses the listing metadata.
//
// The database is opened per operation so concurrent quickgpt processes only
// contend for the lock while an update is in flight.
type SessionIndex struct {
	path    string
	timeout time.Duration
}

func NewSessionIndex(path string) *SessionIndex {
	return &SessionIndex{path: path, timeout: time.Second}
}

func (x *SessionIndex) Path() string {
	return x.path
}

func (x *SessionIndex) open(readOnly bool) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := bolt.Open(x.path, 0o600, &bolt.Options{Timeout: x.timeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open session index: %w", err)
	}
	return db, nil
}

func (x *SessionIndex) update(fn func(b *bolt.Bucket) error) error {
	db, err := x.open(false)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSessions)
		if err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", bucketSessions, err)
		}
		return fn(b)
	})
}

func (x *SessionIndex) view(fn func(b *bolt.Bucket) error) error {
	if _, err := os.Stat(x.path); os.IsNotExist(err) {
		return fn(nil)
	}
	db, err := x.open(true)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucketSessions))
	})
}

// Put creates or replaces s.
func (x *SessionIndex) Put(s *Session) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	return x.update(func(b *bolt.Bucket) error {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		return b.Put([]byte(s.ID), data)
	})
}

func (x *SessionIndex) Get(id string) (*Session, error) {
	var s *Session
	err := x.view(func(b *bolt.Bucket) error {
		if b == nil {
			return nil
		}
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		s = &Session{}
		return json.Unmarshal(data, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get session %q: %w", id, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", errno.ErrSessionNotFound, id)
	}
	return s, nil
}

// Touch records a completed turn. title is kept only if the session has none yet.
func (x *SessionIndex) Touch(id string, turns int, title string) error {
	return x.update(func(b *bolt.Bucket) error {
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", errno.ErrSessionNotFound, id)
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		s.Turns = turns
		s.UpdatedAt = time.Now()
		if s.Title == "" {
			s.Title = title
		}
		out, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		return b.Put([]byte(id), out)
	})
}

func (x *SessionIndex) Delete(id string) error {
	return x.update(func(b *bolt.Bucket) error {
		return b.Delete([]byte(id))
	})
}

// List returns all sessions, most recently updated first.
func (x *SessionIndex) List() ([]*Session, error) {
	var sessions []*Session
	err := x.view(func(b *bolt.Bucket) error {
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var s Session
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			sessions = append(sessions, &s)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}
