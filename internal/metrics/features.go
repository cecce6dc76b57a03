package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/lotus/internal/chat"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures computes byte, rune, word, and line counts for the input string.
func CountFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}

func (f Features) add(o Features) Features {
	return Features{
		Bytes: f.Bytes + o.Bytes,
		Runes: f.Runes + o.Runes,
		Words: f.Words + o.Words,
		Lines: f.Lines + o.Lines,
	}
}

// Message aggregates features over a message's blocks by purpose.
type Message struct {
	Blocks      int
	ToolCalls   int
	ToolResults int
	Chat        Features
	Thinking    Features
}

// MessageFeatures walks m's blocks and sums text features per purpose.
func MessageFeatures(m chat.Message) Message {
	c := &collector{}
	for i := range m.Contents {
		m.Contents[i].Dispatch(c)
	}
	c.out.Blocks = len(m.Contents)
	return c.out
}

type collector struct{ out Message }

func (c *collector) Chat(b *chat.Block) { c.out.Chat = c.out.Chat.add(CountFeatures(b.Text)) }
func (c *collector) Thinking(b *chat.Block) { c.out.Thinking = c.out.Thinking.add(CountFeatures(b.Text)) }
func (c *collector) ToolRequest(*chat.Block) { c.out.ToolCalls++ }
func (c *collector) ToolResult(*chat.Block) { c.out.ToolResults++ }
