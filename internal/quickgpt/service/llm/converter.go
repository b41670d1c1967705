package llm

import (
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
)

// ToSchemaMessages converts domain messages to Eino schema messages.
func ToSchemaMessages(msgs []*entity.Message) []*schema.Message {
	result := make([]*schema.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, ToSchemaMessage(msg))
	}
	return result
}

func ToSchemaMessage(msg *entity.Message) *schema.Message {
	sm := &schema.Message{
		Role:       toSchemaRole(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}
	if msg.Role == entity.RoleTool {
		sm.ToolName = msg.Name
	}

	if len(msg.ToolCalls) > 0 {
		sm.ToolCalls = make([]schema.ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			args := tc.Arguments
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			sm.ToolCalls = append(sm.ToolCalls, schema.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: schema.FunctionCall{
					Name:      tc.Name,
					Arguments: args,
				},
			})
		}
	}
	return sm
}

// ToProviderResponse converts a generated message into the adapter's tagged response.
// Tool calls without an ID get a generated one so results can be correlated.
func ToProviderResponse(sm *schema.Message, provider, model string) *entity.ProviderResponse {
	resp := &entity.ProviderResponse{
		Kind:     entity.ResponseFinal,
		Provider: provider,
		Model:    model,
	}
	if sm == nil {
		return resp
	}
	resp.Text = sm.Content

	if len(sm.ToolCalls) > 0 {
		resp.Kind = entity.ResponseToolCalls
		resp.ToolCalls = make([]*entity.ToolCall, 0, len(sm.ToolCalls))
		for _, tc := range sm.ToolCalls {
			id := tc.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			resp.ToolCalls = append(resp.ToolCalls, &entity.ToolCall{
				ID:        id,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}

	if sm.ResponseMeta != nil && sm.ResponseMeta.Usage != nil {
		u := sm.ResponseMeta.Usage
		resp.Usage = &entity.TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return resp
}

func toSchemaRole(role entity.Role) schema.RoleType {
	switch role {
	case entity.RoleUser:
		return schema.User
	case entity.RoleAssistant:
		return schema.Assistant
	case entity.RoleSystem:
		return schema.System
	case entity.RoleTool:
		return schema.Tool
	default:
		return schema.User
	}
}
