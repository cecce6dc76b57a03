package windowing

import (
	"encoding/json"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/history"
)

func sys(s string) history.Entry  { return history.Entry{Role: chat.RoleSystem, Content: s} }
func user(s string) history.Entry { return history.Entry{Role: chat.RoleUser, Content: s} }
func asst(s string) history.Entry { return history.Entry{Role: chat.RoleAssistant, Content: s} }

// req builds an assistant entry requesting the given tools by id.
func req(calls ...chat.ToolCall) history.Entry {
	return history.Entry{Role: chat.RoleAssistant, ToolCalls: calls}
}

func call(id, name, args string) chat.ToolCall {
	return chat.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func res(id, name, content string) history.Entry {
	return history.Entry{Role: chat.RoleTool, Content: content, ToolCallID: id, ToolName: name}
}

type fixedCounter int

func (f fixedCounter) CountEntry(history.Entry) int { return int(f) }
func (f fixedCounter) CountGroup(g Group, _ []history.Entry) int {
	return int(f) * (g.End - g.Start)
}
