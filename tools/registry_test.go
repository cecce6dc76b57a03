package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/lotus/internal/toolexec"
	"github.com/petasbytes/lotus/tools"
)

func TestBuiltin_ListTools(t *testing.T) {
	specs, err := tools.Builtin(sandbox).ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "read_file", specs[0].Name)
	assert.Equal(t, "list_files", specs[1].Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(specs[0].Parameters, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"path"}, schema["required"])
	assert.Contains(t, schema["properties"], "offset")
	assert.NotContains(t, schema, "$schema")
}

func TestRegistry_CallTool_UnknownName(t *testing.T) {
	_, err := tools.Builtin(sandbox).CallTool(context.Background(), "edit_file", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, toolexec.ErrToolNotFound)
}

func TestRegistry_CallTool_Dispatches(t *testing.T) {
	var got json.RawMessage
	r := tools.NewRegistry(tools.ToolDefinition{
		Name:        "echo",
		InputSchema: tools.GenerateSchema[struct{}](),
		Function: func(_ context.Context, in json.RawMessage) (toolexec.Payload, error) {
			got = in
			return toolexec.Payload{Text: "ok"}, nil
		},
	})
	p, err := r.CallTool(context.Background(), "echo", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", p.Text)
	assert.JSONEq(t, `{"x":1}`, string(got))
}

func TestRegistry_CallTool_CancelledContext(t *testing.T) {
	called := false
	r := tools.NewRegistry(tools.ToolDefinition{
		Name: "never",
		Function: func(context.Context, json.RawMessage) (toolexec.Payload, error) {
			called = true
			return toolexec.Payload{}, nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.CallTool(ctx, "never", nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}

func TestNewRegistry_LaterDefinitionWins(t *testing.T) {
	mk := func(desc string) tools.ToolDefinition {
		return tools.ToolDefinition{Name: "t", Description: desc}
	}
	defs := tools.NewRegistry(mk("first"), mk("second")).Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "second", defs[0].Description)
}
