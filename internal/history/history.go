// Package history projects the structured conversation into the flat,
// role-tagged list a completion service consumes.
//
// Projection is recomputed on every request; nothing is cached. Thinking is
// never sent back to the model.
package history

import "github.com/petasbytes/lotus/internal/chat"

// Entry is one item of the linear history.
type Entry struct {
	Role      chat.Role       `json:"role"`
	Content   string          `json:"content"`
	ToolCalls []chat.ToolCall `json:"tool_calls,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	// ToolCallID correlates a tool entry with its request for backends that
	// need explicit ids.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Project flattens msgs in conversation order, blocks in contents order.
func Project(msgs []chat.Message) []Entry {
	p := &projector{}
	for i := range msgs {
		p.role = msgs[i].Role
		for j := range msgs[i].Contents {
			msgs[i].Contents[j].Dispatch(p)
		}
	}
	return p.out
}

type projector struct {
	role chat.Role
	out  []Entry
}

func (p *projector) Chat(b *chat.Block) {
	if b.Text == "" {
		return
	}
	p.out = append(p.out, Entry{Role: p.role, Content: b.Text})
}

func (p *projector) Thinking(*chat.Block) {}

func (p *projector) ToolRequest(b *chat.Block) {
	if b.ToolCall == nil {
		return
	}
	p.out = append(p.out, Entry{
		Role:      chat.RoleAssistant,
		ToolCalls: []chat.ToolCall{*b.ToolCall},
	})
}

func (p *projector) ToolResult(b *chat.Block) {
	e := Entry{Role: chat.RoleTool, Content: b.Text}
	if b.ToolCall != nil {
		e.ToolName = b.ToolCall.Name
		e.ToolCallID = b.ToolCall.ID
	}
	p.out = append(p.out, e)
}
