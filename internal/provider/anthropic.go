package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/history"
	"github.com/petasbytes/lotus/internal/toolexec"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// AnthropicConfig configures the Anthropic backend.
type AnthropicConfig struct {
	MaxTokens int64
	Logger    *zap.Logger
}

// Anthropic streams completions from the Messages API.
type Anthropic struct {
	client *anthropic.Client
	cfg    AnthropicConfig
	log    *zap.Logger
}

// NewAnthropic returns a completer over client. The client carries the API
// key and transport options.
func NewAnthropic(client *anthropic.Client, cfg AnthropicConfig) *Anthropic {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Anthropic{client: client, cfg: cfg, log: log}
}

// Stream opens a streaming Messages call for req.
func (a *Anthropic) Stream(ctx context.Context, req Request) (Stream, error) {
	model := anthropic.Model(req.Model)
	if req.Model == "" {
		model = DefaultAnthropicModel
	}
	system, msgs := toAnthropicMessages(req.History)
	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: a.cfg.MaxTokens,
		Messages:  msgs,
		System:    system,
		Tools:     toAnthropicTools(req.Tools),
	}
	a.log.Debug("anthropic request", zap.String("model", string(model)), zap.Int("messages", len(msgs)), zap.Int("tools", len(params.Tools)))
	s := a.client.Messages.NewStreaming(ctx, params)
	return &anthropicStream{s: s}, nil
}

// toAnthropicMessages converts projected history. Tool requests without a
// result are dropped because the API rejects them, and consecutive entries
// with the same API role are merged.
func toAnthropicMessages(entries []history.Entry) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	answered := map[string]bool{}
	for _, e := range entries {
		if e.Role == chat.RoleTool {
			answered[e.ToolCallID] = true
		}
	}

	var system []anthropic.TextBlockParam
	var out []anthropic.MessageParam
	add := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, e := range entries {
		switch e.Role {
		case chat.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: e.Content})
		case chat.RoleUser:
			if e.Content != "" {
				add(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(e.Content))
			}
		case chat.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if e.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(e.Content))
			}
			for _, c := range e.ToolCalls {
				if !answered[c.ID] {
					continue
				}
				args := c.Arguments
				if len(args) == 0 {
					args = json.RawMessage(`{}`)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(c.ID, args, c.Name))
			}
			add(anthropic.MessageParamRoleAssistant, blocks...)
		case chat.RoleTool:
			add(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(e.ToolCallID, e.Content, false))
		}
	}
	return system, out
}

func toAnthropicTools(specs []toolexec.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		schema := anthropic.ToolInputSchemaParam{Properties: gjson.GetBytes(s.Parameters, "properties").Value()}
		for _, r := range gjson.GetBytes(s.Parameters, "required").Array() {
			schema.Required = append(schema.Required, r.String())
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: schema,
		}})
	}
	return out
}

type anthropicStream struct {
	queue
	s   *ssestream.Stream[anthropic.MessageStreamEventUnion]
	acc anthropic.Message

	stopped bool
	err     error

	closeOnce sync.Once
}

func (s *anthropicStream) Next() bool {
	for {
		if s.pop() {
			return true
		}
		if s.stopped || s.err != nil {
			return false
		}
		if !s.s.Next() {
			if err := s.s.Err(); err != nil {
				s.err = err
			} else {
				s.err = io.ErrUnexpectedEOF
			}
			return false
		}
		s.handle(s.s.Current())
	}
}

func (s *anthropicStream) handle(ev anthropic.MessageStreamEventUnion) {
	if err := s.acc.Accumulate(ev); err != nil {
		s.err = fmt.Errorf("anthropic: accumulate: %w", err)
		return
	}
	switch e := ev.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		if e.ContentBlock.Type == "thinking" {
			s.push(Part{Token: ThinkOpen})
		}
	case anthropic.ContentBlockDeltaEvent:
		switch d := e.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			s.push(Part{Token: d.Text})
		case anthropic.ThinkingDelta:
			s.push(Part{Token: d.Thinking})
		}
	case anthropic.ContentBlockStopEvent:
		if i := int(e.Index); i < len(s.acc.Content) && s.acc.Content[i].Type == "thinking" {
			s.push(Part{Token: ThinkClose})
		}
	case anthropic.MessageStopEvent:
		var calls []chat.ToolCall
		for _, b := range s.acc.Content {
			if b.Type != "tool_use" {
				continue
			}
			args := json.RawMessage(b.Input)
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			calls = append(calls, chat.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
		if len(calls) > 0 {
			s.push(Part{ToolCalls: calls})
		}
		s.stopped = true
	}
}

func (s *anthropicStream) Err() error { return s.err }

func (s *anthropicStream) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.s.Close() })
	return err
}
