package options

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type LogOptions struct {
	Level string `json:"level" mapstructure:"level"`
	Dir   string `json:"dir" mapstructure:"dir"`
}

func NewLogOptions(home string) *LogOptions {
	return &LogOptions{
		Level: "info",
		Dir:   filepath.Join(home, "log"),
	}
}

// Path returns the log file for the given binary name.
func (o *LogOptions) Path(basename string) string {
	return filepath.Join(o.Dir, basename+".log")
}

func (o *LogOptions) Validate() []error {
	var errs []error
	if _, err := logrus.ParseLevel(o.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q: %w", o.Level, err))
	}
	return errs
}

func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level: debug, info, warn, error.")
	fs.StringVar(&o.Dir, "log.dir", o.Dir, "Directory for the log file.")
}
