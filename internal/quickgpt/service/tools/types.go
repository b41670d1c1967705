package tools

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	// Name is the tool's unique name. (e.g. "read_file")
	Name string
	// Description tells the model when to use the tool.
	Description string
	// Parameters defines the input schema for the tool.
	Parameters []ParameterDef
	// Handler is called with the decoded arguments when the tool is invoked.
	Handler ToolHandler
	// Info, when set, is sent to the model instead of a schema built from
	// Parameters. Tools bridged from MCP servers carry their own schema.
	Info *schema.ToolInfo
}

// ParameterDef defines a single parameter for a tool.
type ParameterDef struct {
	// Name is the parameter's unique name. (e.g. "path")
	Name string
	// Type is one of "string", "integer", "number", "boolean", "object", "array".
	Type string
	// Description is a brief description of the parameter's purpose.
	Description string
	// Required indicates whether the parameter is mandatory.
	Required bool
}

// ToolHandler runs a tool. A string result is returned to the model as-is,
// anything else is JSON encoded.
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ToolInfo returns the schema the model sees for this tool.
func (d *ToolDefinition) ToolInfo() *schema.ToolInfo {
	if d.Info != nil {
		return d.Info
	}
	params := make(map[string]*schema.ParameterInfo, len(d.Parameters))
	for _, p := range d.Parameters {
		params[p.Name] = &schema.ParameterInfo{
			Desc:     p.Description,
			Type:     toSchemaDataType(p.Type),
			Required: p.Required,
		}
	}
	return &schema.ToolInfo{
		Name:        d.Name,
		Desc:        d.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func toSchemaDataType(t string) schema.DataType {
	switch t {
	case "string":
		return schema.String
	case "integer":
		return schema.Integer
	case "number":
		return schema.Number
	case "boolean":
		return schema.Boolean
	case "object":
		return schema.Object
	case "array":
		return schema.Array
	default:
		return schema.String
	}
}
