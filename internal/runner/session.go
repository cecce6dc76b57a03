package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/history"
	"github.com/petasbytes/lotus/internal/parser"
	"github.com/petasbytes/lotus/internal/provider"
	"github.com/petasbytes/lotus/internal/telemetry"
	"github.com/petasbytes/lotus/internal/toolexec"
	"github.com/petasbytes/lotus/internal/windowing"
)

const DefaultMaxTurns = 8

// Options tunes a Session. Zero values select defaults.
type Options struct {
	Model string
	// MaxTurns bounds completion calls per submission.
	MaxTurns int
	// TokenBudget enables windowing of the projected history when > 0.
	TokenBudget int
	Counter     windowing.TokenCounter
	Logger      *zap.Logger
}

// Session runs turns for one conversation.
type Session struct {
	mu        sync.Mutex
	conv      *chat.Conversation
	completer provider.Completer
	adapter   *toolexec.Adapter
	lister    toolexec.Lister
	parser    *parser.Parser
	opts      Options
	log       *zap.Logger
}

// New returns a Session. lister may be nil when no tools are offered.
func New(conv *chat.Conversation, completer provider.Completer, adapter *toolexec.Adapter, lister toolexec.Lister, opts Options) *Session {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.Counter == nil {
		opts.Counter = windowing.HeuristicCounter{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		conv:      conv,
		completer: completer,
		adapter:   adapter,
		lister:    lister,
		parser:    parser.New(log),
		opts:      opts,
		log:       log,
	}
}

// Conversation returns the conversation the session mutates.
func (s *Session) Conversation() *chat.Conversation { return s.conv }

// Submit appends a user message and a fresh assistant message, then runs
// turns until the model stops requesting tools. It returns a copy of the
// assistant message in whatever state it reached, along with any error.
func (s *Session) Submit(ctx context.Context, text string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = telemetry.WithTurnID(ctx, telemetry.NewTurnID())
	telemetry.EmitLocalFeatures(ctx, text)

	s.conv.Append(chat.NewUserMessage(text))
	msg := chat.NewAssistantMessage()
	s.conv.Append(msg)
	id := msg.ID

	turns, err := s.submit(ctx, id)

	out, getErr := s.conv.Get(id)
	if getErr != nil && err == nil {
		err = getErr
	}
	telemetry.EmitTurnCompleted(ctx, out, turns, err)
	return out, err
}

func (s *Session) submit(ctx context.Context, id string) (int, error) {
	var tools []toolexec.ToolSpec
	if s.lister != nil {
		var err error
		if tools, err = s.lister.ListTools(ctx); err != nil {
			return 0, fmt.Errorf("list tools: %w", err)
		}
	}
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	telemetry.Emit("turn_started", map[string]any{
		"turn_id": turnID,
		"model":   s.opts.Model,
		"tools":   len(tools),
	})

	stream, err := s.request(ctx, tools)
	if err != nil {
		return 0, err
	}
	return s.run(ctx, id, stream, tools)
}

// RunTurn consumes stream into the message with the given id and keeps
// resubmitting while the model requests tools. tools are sent with every
// resubmission.
func (s *Session) RunTurn(ctx context.Context, id string, stream provider.Stream, tools []toolexec.ToolSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.run(ctx, id, stream, tools)
	return err
}

func (s *Session) run(ctx context.Context, id string, stream provider.Stream, tools []toolexec.ToolSpec) (int, error) {
	if _, err := s.conv.Get(id); err != nil {
		_ = stream.Close()
		return 0, fmt.Errorf("run turn %s: %w", id, err)
	}
	s.conv.SetGenerating(id)
	defer s.conv.ClearGenerating()

	for turn := 1; ; turn++ {
		log := s.log.With(zap.String("message", id), zap.Int("turn", turn))
		log.Debug("turn started")

		calls, err := s.consume(ctx, id, turn, stream)
		if err != nil {
			log.Debug("turn aborted", zap.Error(err))
			return turn, err
		}
		if len(calls) == 0 {
			log.Debug("turn finished")
			return turn, nil
		}
		if turn >= s.opts.MaxTurns {
			return turn, fmt.Errorf("%w: %d turns", ErrTurnLimitExceeded, s.opts.MaxTurns)
		}
		if err := s.executeTools(ctx, id, calls); err != nil {
			return turn, err
		}

		stream, err = s.request(ctx, tools)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return turn, ctx.Err()
		case errors.Is(err, ErrContextOverBudget):
			return turn, err
		default:
			return turn, &StreamInterruptedError{Turn: turn + 1, Err: err}
		}
	}
}

// consume feeds every part of stream through the parser and returns the
// tool calls announced anywhere in the stream.
func (s *Session) consume(ctx context.Context, id string, turn int, stream provider.Stream) ([]chat.ToolCall, error) {
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()
	defer stream.Close()

	var pending []chat.ToolCall
	for stream.Next() {
		part := stream.Current()
		for _, c := range part.ToolCalls {
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			pending = append(pending, c)
		}
		// Every part is published, including ones that only announce calls.
		err := s.conv.Update(id, func(m *chat.Message) {
			if part.Token != "" {
				resumeAfterTools(m, part.Token)
				m.Buffer.Push(part.Token)
			}
			s.parser.Drain(m)
		})
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := stream.Err(); err != nil {
		return nil, &StreamInterruptedError{Turn: turn, Err: err}
	}
	return pending, nil
}

// resumeAfterTools opens a chat block when plain text would otherwise land
// in the tool block closing the previous turn. Tool blocks carry a call and
// its structured result, so free text cannot be appended to them. Tag tokens
// open their own block.
func resumeAfterTools(m *chat.Message, token string) {
	if strings.HasPrefix(token, "<") {
		return
	}
	if b := m.Last(); b != nil && b.ToolCall != nil {
		m.Open(chat.PurposeChat)
	}
}

// executeTools runs calls in order. A cancelled context skips the calls not
// yet started; a call already running is awaited and its result dropped.
func (s *Session) executeTools(ctx context.Context, id string, calls []chat.ToolCall) error {
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.conv.Update(id, func(m *chat.Message) { m.AppendToolRequest(call) }); err != nil {
			return err
		}

		res, err := s.adapter.Invoke(context.WithoutCancel(ctx), call)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return err
		}
		err = s.conv.Update(id, func(m *chat.Message) {
			m.AppendToolResult(call, res.Type, res.Text, res.Items)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// request projects the conversation, applies the token budget and opens a
// completion stream.
func (s *Session) request(ctx context.Context, tools []toolexec.ToolSpec) (provider.Stream, error) {
	entries := history.Project(s.conv.Messages())

	if s.opts.TokenBudget > 0 {
		window, stats := windowing.PrepareSendWindow(entries, s.opts.TokenBudget, s.opts.Counter)
		turnID, _ := telemetry.TurnIDFromContext(ctx)
		telemetry.Emit("window_prepared", map[string]any{
			"turn_id":            turnID,
			"model":              s.opts.Model,
			"budget":             stats.Budget,
			"total_estimated":    stats.Total,
			"included_groups":    stats.IncludedGroups,
			"skipped_groups":     stats.SkippedGroups,
			"broken_pairs":       stats.BrokenPairs,
			"over_budget_newest": stats.OverBudgetNewest,
		})
		s.log.Debug("window prepared",
			zap.Int("budget", stats.Budget),
			zap.Int("estimated", stats.Total),
			zap.Int("groups_in", stats.IncludedGroups),
			zap.Int("groups_skipped", stats.SkippedGroups),
			zap.Int("broken_pairs", stats.BrokenPairs),
		)
		if stats.OverBudgetNewest {
			return nil, fmt.Errorf("%w (budget %d)", ErrContextOverBudget, s.opts.TokenBudget)
		}
		entries = window
	}

	return s.completer.Stream(ctx, provider.Request{Model: s.opts.Model, History: entries, Tools: tools})
}
