package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/provider"
	"github.com/petasbytes/lotus/internal/toolexec"
)

// script is one scripted completion: its parts, then err (nil = clean end).
type script struct {
	parts []provider.Part
	err   error
}

type sliceStream struct {
	parts  []provider.Part
	err    error
	i      int
	cur    provider.Part
	mu     sync.Mutex
	closed bool
}

func (s *sliceStream) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.i >= len(s.parts) {
		return false
	}
	s.cur = s.parts[s.i]
	s.i++
	return true
}

func (s *sliceStream) Current() provider.Part { return s.cur }

func (s *sliceStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i < len(s.parts) {
		return nil
	}
	return s.err
}

func (s *sliceStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *sliceStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeCompleter replays scripts in order and records each request.
type fakeCompleter struct {
	scripts  []script
	repeat   bool // keep replaying the last script
	requests []provider.Request
	streams  []*sliceStream
	openErr  error
}

func (f *fakeCompleter) Stream(_ context.Context, req provider.Request) (provider.Stream, error) {
	f.requests = append(f.requests, req)
	if f.openErr != nil {
		return nil, f.openErr
	}
	n := len(f.requests) - 1
	if n >= len(f.scripts) {
		if !f.repeat || len(f.scripts) == 0 {
			return nil, fmt.Errorf("unexpected request %d", n+1)
		}
		n = len(f.scripts) - 1
	}
	s := &sliceStream{parts: f.scripts[n].parts, err: f.scripts[n].err}
	f.streams = append(f.streams, s)
	return s, nil
}

func toks(ts ...string) []provider.Part {
	out := make([]provider.Part, 0, len(ts))
	for _, t := range ts {
		out = append(out, provider.Part{Token: t})
	}
	return out
}

func callPart(calls ...chat.ToolCall) provider.Part {
	return provider.Part{ToolCalls: calls}
}

func call(id, name, args string) chat.ToolCall {
	return chat.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

// recordingService logs start/end of every call and fails the named tools.
type recordingService struct {
	mu     sync.Mutex
	events []string
	fail   map[string]error
	onCall func(ctx context.Context, name string)
	items  map[string][]chat.Item
}

func (r *recordingService) CallTool(ctx context.Context, name string, args json.RawMessage) (toolexec.Payload, error) {
	r.log("start:" + name)
	defer r.log("end:" + name)
	if r.onCall != nil {
		r.onCall(ctx, name)
	}
	if err := r.fail[name]; err != nil {
		return toolexec.Payload{}, err
	}
	if items, ok := r.items[name]; ok {
		return toolexec.Payload{Items: items}, nil
	}
	return toolexec.Payload{Text: name + " ok " + string(args)}, nil
}

func (r *recordingService) log(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingService) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type staticLister struct {
	specs []toolexec.ToolSpec
	calls int
	err   error
}

func (l *staticLister) ListTools(context.Context) ([]toolexec.ToolSpec, error) {
	l.calls++
	return l.specs, l.err
}

var errBoom = errors.New("boom")

// purposes lists the purposes of m's blocks.
func purposes(m chat.Message) []chat.Purpose {
	out := make([]chat.Purpose, 0, len(m.Contents))
	for _, b := range m.Contents {
		out = append(out, b.Purpose)
	}
	return out
}
