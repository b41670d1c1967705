package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
)

// RegisterInvokable adds an Eino tool, such as one loaded from an MCP server,
// under owner. The tool keeps its own schema; its arguments are re-encoded
// to JSON and passed through unchanged.
func (r *Registry) RegisterInvokable(ctx context.Context, owner string, t tool.InvokableTool) error {
	info, err := t.Info(ctx)
	if err != nil {
		return fmt.Errorf("read tool info: %w", err)
	}
	params, err := parametersOf(info)
	if err != nil {
		return fmt.Errorf("read schema of tool %s: %w", info.Name, err)
	}

	return r.RegisterFrom(owner, ToolDefinition{
		Name:        info.Name,
		Description: info.Desc,
		Parameters:  params,
		Info:        info,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			args, err := json.MarshalString(params)
			if err != nil {
				return nil, fmt.Errorf("encode arguments: %w", err)
			}
			return t.InvokableRun(ctx, args)
		},
	})
}

// parametersOf flattens the top-level properties of info's JSON schema so
// Dispatch can check required arguments before the call leaves the process.
func parametersOf(info *schema.ToolInfo) ([]ParameterDef, error) {
	sc, err := info.ParamsOneOf.ToJSONSchema()
	if err != nil || sc == nil {
		return nil, err
	}

	required := make(map[string]bool, len(sc.Required))
	for _, name := range sc.Required {
		required[name] = true
	}

	var params []ParameterDef
	seen := make(map[string]bool)
	if sc.Properties != nil {
		for pair := sc.Properties.Oldest(); pair != nil; pair = pair.Next() {
			p := ParameterDef{Name: pair.Key, Required: required[pair.Key]}
			if pair.Value != nil {
				p.Type = pair.Value.Type
				p.Description = pair.Value.Description
			}
			params = append(params, p)
			seen[pair.Key] = true
		}
	}
	// Required names without a property entry are still enforced.
	for _, name := range sc.Required {
		if !seen[name] {
			params = append(params, ParameterDef{Name: name, Required: true})
		}
	}
	return params, nil
}
