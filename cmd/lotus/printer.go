package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/petasbytes/lotus/internal/chat"
)

// printer renders the generating message incrementally: chat text as it
// grows, one marker line per tool request and result. Thinking is not
// shown.
type printer struct {
	mu  sync.Mutex
	w   io.Writer
	id  string
	pos []int // bytes already printed per block; -1 once a marker is shown
	at  int   // block index being printed
	// wrote is set once anything of the current message was printed.
	wrote bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

// Observe is a chat.Observer.
func (p *printer) Observe(snap chat.Snapshot) {
	if snap.Generating == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(snap.Messages) - 1; i >= 0; i-- {
		m := snap.Messages[i]
		if m.ID != snap.Generating {
			continue
		}
		if m.ID != p.id {
			p.id, p.pos, p.wrote = m.ID, nil, false
		}
		for j := range m.Contents {
			if j >= len(p.pos) {
				p.pos = append(p.pos, 0)
			}
			p.at = j
			m.Contents[j].Dispatch(p)
		}
		return
	}
}

func (p *printer) Chat(b *chat.Block) {
	if n := p.pos[p.at]; n < len(b.Text) {
		if n == 0 && p.wrote {
			fmt.Fprintln(p.w)
		}
		fmt.Fprint(p.w, b.Text[n:])
		p.pos[p.at] = len(b.Text)
		p.wrote = true
	}
}

func (p *printer) Thinking(*chat.Block) {}

func (p *printer) ToolRequest(b *chat.Block) {
	if p.pos[p.at] < 0 || b.ToolCall == nil {
		return
	}
	p.marker(fmt.Sprintf("[tool] %s %s", b.ToolCall.Name, b.ToolCall.Arguments))
}

func (p *printer) ToolResult(b *chat.Block) {
	if p.pos[p.at] < 0 {
		return
	}
	p.marker(fmt.Sprintf("[tool result] %d bytes", len(b.Text)))
}

func (p *printer) marker(s string) {
	if p.wrote {
		fmt.Fprintln(p.w)
	}
	fmt.Fprint(p.w, s)
	p.pos[p.at] = -1
	p.wrote = true
}

// Finish ends the current line.
func (p *printer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id != "" {
		fmt.Fprintln(p.w)
	}
	p.id, p.pos, p.wrote = "", nil, false
}
