// Package toolexec invokes named tools through an external execution
// service and normalizes whatever they return into a single textual form
// plus the raw typed items.
package toolexec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/telemetry"
)

// ErrToolNotFound is returned by services that have no tool with the
// requested name.
var ErrToolNotFound = errors.New("tool not found")

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Payload is a raw tool response: either a plain string (Items == nil) or a
// list of typed items.
type Payload struct {
	Text  string
	Items []chat.Item
}

// Service executes one tool call and returns its complete response.
type Service interface {
	CallTool(ctx context.Context, name string, args json.RawMessage) (Payload, error)
}

// Lister enumerates the tools a service offers.
type Lister interface {
	ListTools(ctx context.Context) ([]ToolSpec, error)
}

// ToolExecutionError reports a failed invocation. Cause is the service error
// or the tool's own error report.
type ToolExecutionError struct {
	ToolName string
	Cause    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.ToolName, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// Result is a normalized tool response.
type Result struct {
	Type  chat.BlockType
	Text  string
	Items []chat.Item
}

// Adapter invokes tools on a Service one call at a time.
type Adapter struct {
	svc Service
	log *zap.Logger
}

// NewAdapter returns an Adapter over svc. A nil logger disables logging.
func NewAdapter(svc Service, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{svc: svc, log: log}
}

// Invoke runs call and waits for its single response. Any failure is
// returned as a *ToolExecutionError.
func (a *Adapter) Invoke(ctx context.Context, call chat.ToolCall) (Result, error) {
	log := a.log.With(zap.String("tool", call.Name), zap.String("call_id", call.ID))
	log.Info("executing tool")

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	start := time.Now()
	p, err := a.svc.CallTool(ctx, call.Name, args)
	dur := time.Since(start)

	turnID, _ := telemetry.TurnIDFromContext(ctx)
	fields := map[string]any{
		"turn_id":     turnID,
		"tool_name":   call.Name,
		"duration_ms": dur.Milliseconds(),
		"input_size":  len(args),
		"output_size": 0,
		"error":       nil,
	}
	if err != nil {
		// Generic string only; tool errors may quote file contents.
		fields["error"] = "tool error"
		telemetry.Emit("tool_exec", fields)
		log.Warn("tool failed", zap.Duration("took", dur), zap.Error(err))
		return Result{}, &ToolExecutionError{ToolName: call.Name, Cause: err}
	}

	res := Normalize(p, log)
	fields["output_size"] = len(res.Text)
	telemetry.Emit("tool_exec", fields)
	log.Debug("tool finished", zap.Duration("took", dur), zap.Int("bytes", len(res.Text)))
	return res, nil
}

// Normalize projects p into text. Text items are joined with newlines,
// images become a placeholder and anything else is labelled unsupported and
// embedded verbatim. The raw items are kept on the result.
func Normalize(p Payload, log *zap.Logger) Result {
	if p.Items == nil {
		return Result{Type: chat.BlockText, Text: p.Text}
	}
	if log == nil {
		log = zap.NewNop()
	}

	typ := chat.BlockText
	parts := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		switch it.Kind {
		case chat.ItemText:
			parts = append(parts, it.Text)
		case chat.ItemImage:
			typ = chat.BlockImage
			parts = append(parts, ImagePlaceholder(it.MIMEType))
		default:
			log.Warn("unsupported tool content", zap.String("kind", it.Kind))
			parts = append(parts, fmt.Sprintf("[unsupported content type %q]: %s", it.Kind, raw(it)))
		}
	}
	return Result{Type: typ, Text: strings.Join(parts, "\n"), Items: p.Items}
}

// ImagePlaceholder is the textual stand-in for an image item.
func ImagePlaceholder(mime string) string {
	if mime == "" {
		mime = "unknown"
	}
	return "[image: " + mime + "]"
}

func raw(it chat.Item) string {
	if len(it.Raw) > 0 {
		return string(it.Raw)
	}
	b, err := json.Marshal(map[string]any{"type": it.Kind, "text": it.Text})
	if err != nil {
		return it.Kind
	}
	return string(b)
}
