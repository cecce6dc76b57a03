package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Author returns the display label for r.
func (r Role) Author() string {
	switch r {
	case RoleUser:
		return "Spectre"
	case RoleAssistant:
		return "Lotus"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// ToolCall identifies a tool invocation announced by the model.
// ID may be empty for backends that do not correlate calls by id.
type ToolCall struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is one entry of the conversation.
type Message struct {
	ID        string
	Role      Role
	Author    string
	Timestamp time.Time

	// Buffer holds raw tokens waiting for the parser. It is drained to empty
	// after every parse and is not part of the conversation's meaning.
	Buffer Buffer

	Contents []Block
}

func newMessage(role Role) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Author:    role.Author(),
		Timestamp: time.Now(),
	}
}

// NewUserMessage returns a fully populated user message holding text.
func NewUserMessage(text string) *Message {
	m := newMessage(RoleUser)
	m.Contents = []Block{{Type: BlockText, Purpose: PurposeChat, Text: text}}
	return m
}

// NewSystemMessage returns a system message holding text.
func NewSystemMessage(text string) *Message {
	m := newMessage(RoleSystem)
	m.Contents = []Block{{Type: BlockText, Purpose: PurposeChat, Text: text}}
	return m
}

// NewAssistantMessage returns an assistant message with no contents, ready
// to be filled by a generating turn.
func NewAssistantMessage() *Message {
	return newMessage(RoleAssistant)
}

// Last returns the open block, or nil when Contents is empty.
func (m *Message) Last() *Block {
	if len(m.Contents) == 0 {
		return nil
	}
	return &m.Contents[len(m.Contents)-1]
}

// Open appends an empty text block with the given purpose and returns it.
func (m *Message) Open(p Purpose) *Block {
	m.Contents = append(m.Contents, Block{Type: BlockText, Purpose: p})
	return m.Last()
}

// AppendText appends s to the open block, lazily opening a chat block when
// the message has no contents yet.
func (m *Message) AppendText(s string) {
	b := m.Last()
	if b == nil {
		b = m.Open(PurposeChat)
	}
	b.Text += s
}

// AppendToolRequest records that call is about to be executed.
func (m *Message) AppendToolRequest(call ToolCall) {
	c := call.clone()
	m.Contents = append(m.Contents, Block{Type: BlockText, Purpose: PurposeToolRequest, ToolCall: &c})
}

// AppendToolResult records the normalized outcome of call.
func (m *Message) AppendToolResult(call ToolCall, typ BlockType, text string, items []Item) {
	c := call.clone()
	m.Contents = append(m.Contents, Block{
		Type:     typ,
		Purpose:  PurposeToolResult,
		Text:     text,
		Items:    cloneItems(items),
		ToolCall: &c,
	})
}

// Clone returns a deep copy of m.
func (m *Message) Clone() Message {
	out := *m
	out.Buffer = m.Buffer.clone()
	if m.Contents != nil {
		out.Contents = make([]Block, len(m.Contents))
		for i := range m.Contents {
			out.Contents[i] = m.Contents[i].clone()
		}
	}
	return out
}

func (c ToolCall) clone() ToolCall {
	if c.Arguments != nil {
		c.Arguments = append(json.RawMessage(nil), c.Arguments...)
	}
	return c
}
