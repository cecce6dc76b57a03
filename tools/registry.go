package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/petasbytes/lotus/internal/toolexec"
)

// Registry dispatches calls to in-process tool definitions by name.
type Registry struct {
	order []string
	defs  map[string]ToolDefinition
}

// NewRegistry returns a registry serving defs in the given order. A later
// definition replaces an earlier one with the same name.
func NewRegistry(defs ...ToolDefinition) *Registry {
	r := &Registry{defs: make(map[string]ToolDefinition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.Name]; !dup {
			r.order = append(r.order, d.Name)
		}
		r.defs[d.Name] = d
	}
	return r
}

// Builtin returns the file tools bound to sb.
func Builtin(sb *Sandbox) *Registry {
	return NewRegistry(ReadFileDefinition(sb), ListFilesDefinition(sb))
}

// Definitions returns the registered tools in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// ListTools implements toolexec.Lister.
func (r *Registry) ListTools(context.Context) ([]toolexec.ToolSpec, error) {
	specs := make([]toolexec.ToolSpec, 0, len(r.order))
	for _, d := range r.Definitions() {
		s, err := d.Spec()
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", d.Name, err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// CallTool implements toolexec.Service.
func (r *Registry) CallTool(ctx context.Context, name string, args json.RawMessage) (toolexec.Payload, error) {
	d, ok := r.defs[name]
	if !ok {
		return toolexec.Payload{}, fmt.Errorf("%w: %s", toolexec.ErrToolNotFound, name)
	}
	if err := ctx.Err(); err != nil {
		return toolexec.Payload{}, err
	}
	return d.Function(ctx, args)
}
