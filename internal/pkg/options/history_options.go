package options

import (
	"errors"
	"path/filepath"

	"github.com/spf13/pflag"
)

type HistoryOptions struct {
	// Dir holds one JSONL file per session and the session index.
	Dir string `json:"dir" mapstructure:"dir"`
	// Index enables the bolt session catalogue next to the history files.
	Index bool `json:"index" mapstructure:"index"`
}

func NewHistoryOptions(home string) *HistoryOptions {
	return &HistoryOptions{
		Dir:   filepath.Join(home, "history"),
		Index: true,
	}
}

// IndexPath is the bolt database file for the session index.
func (o *HistoryOptions) IndexPath() string {
	return filepath.Join(o.Dir, "sessions.db")
}

func (o *HistoryOptions) Validate() []error {
	if o.Dir == "" {
		return []error{errors.New("history.dir is required")}
	}
	return nil
}

func (o *HistoryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Dir, "history.dir", o.Dir, "Directory where conversation history files are written.")
	fs.BoolVar(&o.Index, "history.index", o.Index, "Maintain a session index for `history list`.")
}
