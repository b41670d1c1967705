package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() ToolDefinition {
	return ToolDefinition{
		Name:        "echo",
		Description: "Echo the text back.",
		Parameters: []ParameterDef{
			{Name: "text", Type: "string", Description: "text to echo", Required: true},
			{Name: "times", Type: "integer", Description: "repeat count"},
		},
		Handler: func(_ context.Context, params map[string]interface{}) (interface{}, error) {
			text, err := StringArg(params, "text")
			if err != nil {
				return nil, err
			}
			times, _ := params["times"].(int)
			if times == 0 {
				times = 1
			}
			out := ""
			for i := 0; i < times; i++ {
				out += text
			}
			return out, nil
		},
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool()))

	err := r.Register(echoTool())
	assert.ErrorIs(t, err, errno.ErrDuplicateTool)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterRejectsIncomplete(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(ToolDefinition{Name: "", Handler: echoTool().Handler}))
	assert.Error(t, r.Register(ToolDefinition{Name: "nohandler"}))
}

func TestDispatchSuccess(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool())

	res, err := r.Dispatch(context.Background(), &entity.ToolCall{ID: "c1", Name: "echo", Arguments: `{"text":"ab","times":3}`})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ababab", res.Output)
	assert.Equal(t, "c1", res.ToolCallID)
	assert.Equal(t, "echo", res.ToolName)
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()

	res, err := r.Dispatch(context.Background(), &entity.ToolCall{ID: "c1", Name: "nope"})
	assert.ErrorIs(t, err, errno.ErrUnknownTool)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, "c1", res.ToolCallID)
}

func TestDispatchInvalidArguments(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool())

	cases := map[string]string{
		"missing required": `{"times":2}`,
		"not json":         `{text:`,
		"fractional int":   `{"text":"a","times":1.5}`,
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := r.Dispatch(context.Background(), &entity.ToolCall{ID: "c", Name: "echo", Arguments: args})
			assert.ErrorIs(t, err, errno.ErrInvalidArguments)
			assert.False(t, res.Success)
		})
	}
}

func TestDispatchHandlerFailureIsContained(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(ToolDefinition{
		Name: "boom",
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			return nil, errors.New("disk on fire")
		},
	})
	r.MustRegister(ToolDefinition{
		Name: "panic",
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			panic("unexpected")
		},
	})

	res, err := r.Dispatch(context.Background(), &entity.ToolCall{ID: "c", Name: "boom"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Error: disk on fire", res.Output)

	res, err = r.Dispatch(context.Background(), &entity.ToolCall{ID: "c", Name: "panic"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "panicked")
}

func TestDispatchStructuredResult(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(ToolDefinition{
		Name: "info",
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			return map[string]int{"size": 3}, nil
		},
	})

	res, err := r.Dispatch(context.Background(), &entity.ToolCall{ID: "c", Name: "info"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"size":3}`, res.Output)
}

func TestSchemas(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool())
	r.MustRegister(ToolDefinition{Name: "alpha", Handler: echoTool().Handler})

	infos := r.Schemas()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "echo", infos[1].Name)

	assert.Equal(t, "Echo the text back.", infos[1].Desc)
	assert.NotNil(t, infos[1].ParamsOneOf)
}

type fakeInvokable struct {
	gotArgs string
}

func (f *fakeInvokable) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "remote_lookup",
		Desc: "Look something up remotely.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"key":   {Type: schema.String, Desc: "Lookup key.", Required: true},
			"limit": {Type: schema.Integer},
		}),
	}, nil
}

func (f *fakeInvokable) InvokableRun(_ context.Context, args string, _ ...tool.Option) (string, error) {
	f.gotArgs = args
	return "found", nil
}

func TestRegisterInvokable(t *testing.T) {
	r := NewRegistry()
	ft := &fakeInvokable{}
	require.NoError(t, r.RegisterInvokable(context.Background(), "lookup-server", ft))
	assert.Equal(t, "lookup-server", r.Owner("remote_lookup"))

	res, err := r.Dispatch(context.Background(), &entity.ToolCall{ID: "c", Name: "remote_lookup", Arguments: `{"key":"k"}`})
	require.NoError(t, err)
	assert.Equal(t, "found", res.Output)
	assert.JSONEq(t, `{"key":"k"}`, ft.gotArgs)
	assert.Equal(t, "Look something up remotely.", r.Schemas()[0].Desc)
}

func TestRegisterInvokableChecksRequiredArguments(t *testing.T) {
	r := NewRegistry()
	ft := &fakeInvokable{}
	require.NoError(t, r.RegisterInvokable(context.Background(), "lookup-server", ft))

	def, ok := r.Get("remote_lookup")
	require.True(t, ok)
	require.Len(t, def.Parameters, 2)
	assert.Equal(t, ParameterDef{Name: "key", Type: "string", Description: "Lookup key.", Required: true}, def.Parameters[0])
	assert.False(t, def.Parameters[1].Required)

	res, err := r.Dispatch(context.Background(), &entity.ToolCall{ID: "c", Name: "remote_lookup", Arguments: `{"limit":3}`})
	require.ErrorIs(t, err, errno.ErrInvalidArguments)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, `missing required parameter "key"`)
	assert.Empty(t, ft.gotArgs)
}
