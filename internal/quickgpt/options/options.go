package options

import (
	"errors"

	genericoptions "github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Options is the full runtime configuration of a quickgpt session.
type Options struct {
	ModelOptions   *genericoptions.ModelOptions   `json:"models"  mapstructure:"models"`
	ToolOptions    *genericoptions.ToolOptions    `json:"tools"   mapstructure:"tools"`
	HistoryOptions *genericoptions.HistoryOptions `json:"history" mapstructure:"history"`
	MemoryOptions  *genericoptions.MemoryOptions  `json:"memory"  mapstructure:"memory"`
	RetryOptions   *genericoptions.RetryOptions   `json:"retry"   mapstructure:"retry"`
	LogOptions     *genericoptions.LogOptions     `json:"log"     mapstructure:"log"`
	MCPOptions     *genericoptions.MCPOptions     `json:"mcp"     mapstructure:"mcp"`
}

// NewOptions returns defaults rooted at home (normally ~/.quickgpt).
func NewOptions(home string) *Options {
	return &Options{
		ModelOptions:   genericoptions.NewModelOptions(),
		ToolOptions:    genericoptions.NewToolOptions(),
		HistoryOptions: genericoptions.NewHistoryOptions(home),
		MemoryOptions:  genericoptions.NewMemoryOptions(),
		RetryOptions:   genericoptions.NewRetryOptions(),
		LogOptions:     genericoptions.NewLogOptions(home),
		MCPOptions:     genericoptions.NewMCPOptions(home),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.ModelOptions.AddFlags(fs)
	o.ToolOptions.AddFlags(fs)
	o.HistoryOptions.AddFlags(fs)
	o.MemoryOptions.AddFlags(fs)
	o.RetryOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.MCPOptions.AddFlags(fs)
}

// Complete fills o from the global viper instance (config file, env, bound flags).
func (o *Options) Complete() error {
	return viper.Unmarshal(o)
}

func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.ModelOptions.Validate()...)
	errs = append(errs, o.ToolOptions.Validate()...)
	errs = append(errs, o.HistoryOptions.Validate()...)
	errs = append(errs, o.MemoryOptions.Validate()...)
	errs = append(errs, o.RetryOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.MCPOptions.Validate()...)
	return errors.Join(errs...)
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)

	return string(data)
}
