package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/petasbytes/lotus/internal/toolexec"
)

// ToolDefinition binds a tool's model-facing description to its handler.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Function    func(ctx context.Context, input json.RawMessage) (toolexec.Payload, error)
}

// Spec renders d as the definition sent to the model.
func (d ToolDefinition) Spec() (toolexec.ToolSpec, error) {
	params, err := json.Marshal(d.InputSchema)
	if err != nil {
		return toolexec.ToolSpec{}, err
	}
	return toolexec.ToolSpec{Name: d.Name, Description: d.Description, Parameters: params}, nil
}

// GenerateSchema reflects T into an inline object schema.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	s := reflector.Reflect(v)
	s.Version = ""
	return s
}
