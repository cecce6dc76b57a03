package telemetry

import (
	"context"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/metrics"
)

// EmitLocalFeatures records size features of the user's input for the turn.
func EmitLocalFeatures(ctx context.Context, user string) {
	if !Enabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(user)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"user":             featureFields(f),
	})
}

// EmitTurnCompleted summarizes the finished assistant message.
func EmitTurnCompleted(ctx context.Context, m chat.Message, turns int, err error) {
	if !Enabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	mf := metrics.MessageFeatures(m)
	fields := map[string]any{
		"turn_id":      turnID,
		"turns":        turns,
		"blocks":       mf.Blocks,
		"tool_calls":   mf.ToolCalls,
		"tool_results": mf.ToolResults,
		"chat":         featureFields(mf.Chat),
		"thinking":     featureFields(mf.Thinking),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	Emit("turn_completed", fields)
}

func featureFields(f metrics.Features) map[string]any {
	return map[string]any{
		"bytes": f.Bytes,
		"runes": f.Runes,
		"words": f.Words,
		"lines": f.Lines,
	}
}
