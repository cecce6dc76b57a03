// Package parser turns raw model tokens into typed content blocks.
//
// Tokens are classified one at a time, in arrival order:
//   - plain text goes to the open block (a chat block is opened lazily),
//   - "<think>" opens a thinking block, "<response>" opens a chat block,
//   - a tag token containing "</think>" opens a chat block,
//   - any other tag token is dropped.
//
// A tag token only opens a block. Text fused to the tag within the same token
// is not appended.
package parser

import (
	"strings"

	"github.com/petasbytes/lotus/internal/chat"
	"go.uber.org/zap"
)

const (
	tagResponse   = "<response>"
	tagThink      = "<think>"
	tagThinkClose = "</think>"
)

type Parser struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

// Drain empties m.Buffer into m.Contents. It is a no-op on an empty buffer.
func (p *Parser) Drain(m *chat.Message) {
	for {
		token, ok := m.Buffer.Pop()
		if !ok {
			return
		}
		p.apply(m, token)
	}
}

func (p *Parser) apply(m *chat.Message, token string) {
	if !strings.HasPrefix(token, "<") {
		m.AppendText(token)
		return
	}

	end := strings.IndexByte(token, '>')
	if end < 0 {
		p.log.Debug("dropping unterminated tag", zap.String("token", token))
		return
	}

	switch tag := token[:end+1]; {
	case tag == tagResponse:
		m.Open(chat.PurposeChat)
	case tag == tagThink:
		m.Open(chat.PurposeThinking)
	case strings.Contains(token, tagThinkClose):
		m.Open(chat.PurposeChat)
	default:
		p.log.Debug("dropping unsupported tag", zap.String("tag", tag))
	}
}
