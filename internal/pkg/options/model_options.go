package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const DefaultModelName = "gemini-2.5-flash"

type ModelOptions struct {
	Mode         string                     `json:"mode" mapstructure:"mode"`
	DefaultModel string                     `json:"default-model" mapstructure:"default-model"`
	Temperature  float32                    `json:"temperature" mapstructure:"temperature"`
	MaxTokens    int                        `json:"max-tokens" mapstructure:"max-tokens"`
	Providers    map[string]*ProviderConfig `json:"providers" mapstructure:"providers"`
}

type ProviderConfig struct {
	BaseURL string            `json:"base-url" mapstructure:"base-url"`
	APIKey  string            `json:"api-key" mapstructure:"api-key"`
	Headers map[string]string `json:"headers" mapstructure:"headers"`
	Models  []ModelDefinition `json:"models" mapstructure:"models"`
}

type ModelDefinition struct {
	ID            string `json:"id" mapstructure:"id"`
	Name          string `json:"name" mapstructure:"name"`
	Reasoning     bool   `json:"reasoning" mapstructure:"reasoning"`
	ContextWindow int    `json:"context-window" mapstructure:"context-window"`
	MaxTokens     int    `json:"max-tokens" mapstructure:"max-tokens"`
}

func NewModelOptions() *ModelOptions {
	return &ModelOptions{
		Mode:         "merge",
		DefaultModel: DefaultModelName,
		Providers:    make(map[string]*ProviderConfig),
	}
}

// Model returns the definition for id, or nil when the provider does not list it.
func (p *ProviderConfig) Model(id string) *ModelDefinition {
	for i := range p.Models {
		if strings.EqualFold(p.Models[i].ID, id) {
			return &p.Models[i]
		}
	}
	return nil
}

func (o *ModelOptions) Validate() []error {
	var errs []error
	if o.Mode != "merge" && o.Mode != "replace" {
		errs = append(errs, fmt.Errorf("invalid model mode %q, must be 'merge' or 'replace'", o.Mode))
	}
	if strings.TrimSpace(o.DefaultModel) == "" {
		errs = append(errs, fmt.Errorf("models.default-model must not be empty"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("models.temperature %v out of range [0, 2]", o.Temperature))
	}
	for id, p := range o.Providers {
		if p == nil {
			errs = append(errs, fmt.Errorf("provider %q has no configuration", id))
			continue
		}
		for _, m := range p.Models {
			if m.ID == "" {
				errs = append(errs, fmt.Errorf("provider %q: model id is required", id))
			}
		}
	}
	return errs
}

func (o *ModelOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Mode, "models.mode", o.Mode, "Provider config merge mode: 'merge' overlays the built-in defaults, 'replace' ignores them.")
	fs.StringVar(&o.DefaultModel, "models.default-model", o.DefaultModel, "Model used when --model_name is not given.")
	fs.Float32Var(&o.Temperature, "models.temperature", o.Temperature, "Sampling temperature, 0 keeps the provider default.")
	fs.IntVar(&o.MaxTokens, "models.max-tokens", o.MaxTokens, "Maximum output tokens per response, 0 keeps the provider default.")
}
