package chat

import (
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// Purpose tags what a block means to the conversation. Consumers handle it
// through Dispatch so that a new purpose breaks every handler at compile time.
type Purpose int

const (
	PurposeChat Purpose = iota
	PurposeToolRequest
	PurposeToolResult
	PurposeThinking
)

func (p Purpose) String() string {
	switch p {
	case PurposeChat:
		return "chat"
	case PurposeToolRequest:
		return "tool-request"
	case PurposeToolResult:
		return "tool-result"
	case PurposeThinking:
		return "thinking"
	default:
		return fmt.Sprintf("purpose(%d)", int(p))
	}
}

// PurposeHandler receives a block according to its purpose.
type PurposeHandler interface {
	Chat(b *Block)
	Thinking(b *Block)
	ToolRequest(b *Block)
	ToolResult(b *Block)
}

// Item kinds a tool may return. Any other kind is carried verbatim in Raw.
const (
	ItemText  = "text"
	ItemImage = "image"
)

// Item is one typed payload element returned by a tool.
type Item struct {
	Kind     string
	Text     string
	Data     []byte
	MIMEType string
	Raw      json.RawMessage
}

// Block is one unit of a message's structured content.
//
// Text accumulates streamed output; for tool results it is the normalized
// textual projection while Items keeps the raw payload (images included).
// ToolCall is set only for tool-request and tool-result blocks.
type Block struct {
	Type     BlockType
	Purpose  Purpose
	Text     string
	Items    []Item
	ToolCall *ToolCall
}

// Dispatch calls the handler method matching b's purpose.
func (b *Block) Dispatch(h PurposeHandler) {
	switch b.Purpose {
	case PurposeChat:
		h.Chat(b)
	case PurposeThinking:
		h.Thinking(b)
	case PurposeToolRequest:
		h.ToolRequest(b)
	case PurposeToolResult:
		h.ToolResult(b)
	default:
		panic(fmt.Sprintf("chat: unhandled %v", b.Purpose))
	}
}

func (b Block) clone() Block {
	if b.ToolCall != nil {
		c := b.ToolCall.clone()
		b.ToolCall = &c
	}
	b.Items = cloneItems(b.Items)
	return b
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		if it.Data != nil {
			it.Data = append([]byte(nil), it.Data...)
		}
		if it.Raw != nil {
			it.Raw = append(json.RawMessage(nil), it.Raw...)
		}
		out[i] = it
	}
	return out
}
