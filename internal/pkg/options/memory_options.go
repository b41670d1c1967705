package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

type MemoryOptions struct {
	// ShortTermThreshold is the short-term size that triggers summarization.
	ShortTermThreshold int `json:"short-term-threshold" mapstructure:"short-term-threshold"`
	// SummaryMaxTokens caps the summary request.
	SummaryMaxTokens int `json:"summary-max-tokens" mapstructure:"summary-max-tokens"`
}

func NewMemoryOptions() *MemoryOptions {
	return &MemoryOptions{
		ShortTermThreshold: 50,
		SummaryMaxTokens:   512,
	}
}

func (o *MemoryOptions) Validate() []error {
	var errs []error
	if o.ShortTermThreshold < 2 {
		errs = append(errs, fmt.Errorf("memory.short-term-threshold must be at least 2, got %d", o.ShortTermThreshold))
	}
	return errs
}

func (o *MemoryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.ShortTermThreshold, "memory.short-term-threshold", o.ShortTermThreshold, "Number of short-term messages that triggers summarization into long-term memory.")
	fs.IntVar(&o.SummaryMaxTokens, "memory.summary-max-tokens", o.SummaryMaxTokens, "Token budget for a memory summary.")
}
