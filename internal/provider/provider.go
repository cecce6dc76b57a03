// Package provider holds the completion services that stream model output
// for a projected history.
//
// A Stream is pull-based: Next blocks until the next Part is available and
// returns false at the end of the stream or on failure, after which Err
// reports what happened. An end of stream the service did not announce is
// reported as io.ErrUnexpectedEOF.
package provider

import (
	"context"
	"errors"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/history"
	"github.com/petasbytes/lotus/internal/toolexec"
)

// Synthetic fragments wrapped around reasoning that a service reports
// out of band, so the parser sees it the same way as inline reasoning.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

// ErrModelNotFound is returned when the service does not know the model.
var ErrModelNotFound = errors.New("model not found")

// Part is one increment of a stream: a text fragment, tool-call
// announcements, or both.
type Part struct {
	Token     string
	ToolCalls []chat.ToolCall
}

// Stream yields Parts until exhausted. Close aborts the underlying
// transport and is safe to call more than once.
type Stream interface {
	Next() bool
	Current() Part
	Err() error
	Close() error
}

// Request is one completion call.
type Request struct {
	Model   string
	History []history.Entry
	Tools   []toolexec.ToolSpec
}

// Completer opens completion streams.
type Completer interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// queue buffers parts decoded ahead of the caller.
type queue struct {
	pending []Part
	cur     Part
}

func (q *queue) push(p Part) { q.pending = append(q.pending, p) }

func (q *queue) pop() bool {
	if len(q.pending) == 0 {
		return false
	}
	q.cur = q.pending[0]
	q.pending = q.pending[1:]
	return true
}

func (q *queue) Current() Part { return q.cur }
