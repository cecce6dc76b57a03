package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/lotus/internal/history"
)

// TokenCounter estimates input-token cost for entries or groups.
type TokenCounter interface {
	CountEntry(e history.Entry) int
	CountGroup(g Group, all []history.Entry) int
}

// HeuristicCounter is a deterministic estimator: runes of the content, of
// each tool name and of its raw arguments, plus a fixed per-entry overhead.
type HeuristicCounter struct{}

// Changing this requires updating the counter tests.
const entryOverhead = 4

func (HeuristicCounter) CountEntry(e history.Entry) int {
	total := utf8.RuneCountInString(e.Content) + entryOverhead
	for _, c := range e.ToolCalls {
		total += utf8.RuneCountInString(c.Name) + utf8.RuneCount(c.Arguments)
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []history.Entry) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountEntry(all[i])
	}
	return total
}
