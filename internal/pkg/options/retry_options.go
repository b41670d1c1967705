package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// RetryOptions configures exponential backoff for rate-limited or failed provider calls.
type RetryOptions struct {
	MaxAttempts int           `json:"max-attempts" mapstructure:"max-attempts"`
	BaseDelay   time.Duration `json:"base-delay" mapstructure:"base-delay"`
	MaxDelay    time.Duration `json:"max-delay" mapstructure:"max-delay"`
	Multiplier  float64       `json:"multiplier" mapstructure:"multiplier"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewRetryOptions() *RetryOptions {
	return &RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Multiplier:  2,
		Timeout:     120 * time.Second,
	}
}

func (o *RetryOptions) Validate() []error {
	var errs []error
	if o.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max-attempts must be at least 1, got %d", o.MaxAttempts))
	}
	if o.BaseDelay < 0 || o.MaxDelay < o.BaseDelay {
		errs = append(errs, fmt.Errorf("retry delays invalid: base %s, max %s", o.BaseDelay, o.MaxDelay))
	}
	if o.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("retry.multiplier must be >= 1, got %v", o.Multiplier))
	}
	return errs
}

func (o *RetryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxAttempts, "retry.max-attempts", o.MaxAttempts, "Attempts per provider call for rate limit and network failures.")
	fs.DurationVar(&o.BaseDelay, "retry.base-delay", o.BaseDelay, "Initial backoff delay.")
	fs.DurationVar(&o.MaxDelay, "retry.max-delay", o.MaxDelay, "Upper bound for a single backoff delay.")
	fs.Float64Var(&o.Multiplier, "retry.multiplier", o.Multiplier, "Backoff growth factor.")
	fs.DurationVar(&o.Timeout, "retry.timeout", o.Timeout, "Deadline for a single provider request.")
}
