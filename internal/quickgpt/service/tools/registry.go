package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/kiosk404/quickgpt/pkg/utils/json"
)

// Registry maps tool names to definitions and dispatches tool calls.
//
// Thread-safe: registration and lookups are guarded by a mutex.
type Registry struct {
	mu sync.RWMutex

	tools map[string]ToolDefinition
	// owners records where a tool came from ("builtin", an MCP server name).
	owners map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]ToolDefinition),
		owners: make(map[string]string),
	}
}

// Register adds def under its name. Names are unique.
func (r *Registry) Register(def ToolDefinition) error {
	return r.RegisterFrom("builtin", def)
}

// RegisterFrom is Register with an explicit owner used in listings.
func (r *Registry) RegisterFrom(owner string, def ToolDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q has no handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.owners[def.Name]; ok {
		return fmt.Errorf("%w: %q (owned by %s)", errno.ErrDuplicateTool, def.Name, existing)
	}
	r.tools[def.Name] = def
	r.owners[def.Name] = owner
	return nil
}

func (r *Registry) MustRegister(def ToolDefinition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Owner returns who registered name.
func (r *Registry) Owner(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owners[name]
}

// Names returns registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Schemas returns the tool schemas in name order.
func (r *Registry) Schemas() []*schema.ToolInfo {
	names := r.Names()
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		def, ok := r.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, def.ToolInfo())
	}
	return infos
}

// Dispatch runs the tool named by call. The returned result is never nil.
// Unknown tools and bad arguments also return errno.ErrUnknownTool or
// errno.ErrInvalidArguments; a failing handler only yields a failed result.
func (r *Registry) Dispatch(ctx context.Context, call *entity.ToolCall) (*entity.ToolResult, error) {
	result := &entity.ToolResult{ToolCallID: call.ID, ToolName: call.Name}

	def, ok := r.Get(call.Name)
	if !ok {
		err := fmt.Errorf("%w: %s", errno.ErrUnknownTool, call.Name)
		result.Output = "Error: " + err.Error()
		return result, err
	}

	params, err := decodeArguments(def, call.Arguments)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", errno.ErrInvalidArguments, call.Name, err)
		result.Output = "Error: " + err.Error()
		return result, err
	}

	logger.DebugX("Tools", "dispatch %s(%s)", call.Name, call.Arguments)
	out, err := invoke(ctx, def, params)
	if err != nil {
		logger.InfoX("Tools", "%s failed: %v", call.Name, err)
		result.Output = "Error: " + err.Error()
		return result, nil
	}

	result.Output = out
	result.Success = true
	return result, nil
}

func decodeArguments(def ToolDefinition, raw string) (map[string]interface{}, error) {
	params := make(map[string]interface{})
	raw = strings.TrimSpace(raw)
	if raw != "" && raw != "null" {
		if err := json.UnmarshalString(raw, &params); err != nil {
			return nil, fmt.Errorf("arguments are not a JSON object: %v", err)
		}
	}

	for _, p := range def.Parameters {
		v, ok := params[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, fmt.Errorf("missing required parameter %q", p.Name)
			}
			continue
		}
		if p.Type == "integer" {
			n, err := IntArg(params, p.Name, 0)
			if err != nil {
				return nil, err
			}
			params[p.Name] = n
		}
	}
	return params, nil
}

func invoke(ctx context.Context, def ToolDefinition, params map[string]interface{}) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool %s panicked: %v", def.Name, rec)
		}
	}()

	res, err := def.Handler(ctx, params)
	if err != nil {
		return "", err
	}
	switch v := res.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return json.MarshalString(v)
	}
}
