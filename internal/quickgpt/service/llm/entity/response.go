package entity

// ResponseKind tags the variant held by a ProviderResponse.
type ResponseKind int

const (
	ResponseFinal ResponseKind = iota
	ResponseToolCalls
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseFinal:
		return "final_text"
	case ResponseToolCalls:
		return "tool_call_request"
	default:
		return "unknown"
	}
}

// ProviderResponse is either a final text answer or a batch of tool call
// requests. Text may accompany tool calls when the model thinks aloud.
type ProviderResponse struct {
	Kind      ResponseKind
	Text      string
	ToolCalls []*ToolCall
	Usage     *TokenUsage
	Provider  string
	Model     string
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (r *ProviderResponse) IsFinal() bool {
	return r.Kind == ResponseFinal
}
