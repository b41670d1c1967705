package entity

// LLMParams are per-session sampling overrides. Zero values keep provider defaults.
type LLMParams struct {
	Temperature *float32
	MaxTokens   int
	TopP        *float32
	TopK        *int32
}

// Connection is everything a provider plugin needs to build a chat model.
type Connection struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Headers   map[string]string
	Reasoning bool
	MaxTokens int
}
