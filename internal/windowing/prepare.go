package windowing

import (
	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/history"
)

// Stats summarizes the result of window preparation.
//
// Total counts the included entries only, system prefix included.
// OverBudgetNewest is set when the newest group alone (plus the system
// prefix) does not fit.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	BrokenPairs      int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the leading system entries followed by the
// longest suffix of whole groups that fits within budget.
//
// If budget <= 0 or the newest group does not fit, the returned window is
// empty and OverBudgetNewest is set (when there is anything to send).
func PrepareSendWindow(entries []history.Entry, budget int, c TokenCounter) ([]history.Entry, Stats) {
	if len(entries) == 0 {
		return nil, Stats{Budget: budget}
	}

	prefix := 0
	for prefix < len(entries) && entries[prefix].Role == chat.RoleSystem {
		prefix++
	}
	system, rest := entries[:prefix], entries[prefix:]

	groups, broken := GroupEntries(rest)
	stats := Stats{Budget: budget, BrokenPairs: broken}

	total := 0
	for _, e := range system {
		total += c.CountEntry(e)
	}

	if budget <= 0 || total > budget {
		stats.SkippedGroups = len(groups)
		stats.OverBudgetNewest = true
		return nil, stats
	}

	startIdx := len(groups)
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], rest)
		if total+cost > budget {
			if gi == len(groups)-1 {
				stats.SkippedGroups = len(groups)
				stats.OverBudgetNewest = true
				return nil, stats
			}
			break
		}
		total += cost
		startIdx = gi
	}

	stats.Total = total
	stats.IncludedGroups = len(groups) - startIdx
	stats.SkippedGroups = startIdx

	window := make([]history.Entry, 0, prefix+len(rest))
	window = append(window, system...)
	if startIdx < len(groups) {
		window = append(window, rest[groups[startIdx].Start:]...)
	}
	return window, stats
}
