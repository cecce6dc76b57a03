package windowing

import (
	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/history"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of entries [Start, End).
type Group struct {
	Kind  GroupKind
	Start int // inclusive
	End   int // exclusive
}

// GroupEntries splits entries into groups and reports how many tool-request
// entries could not be paired with their results.
func GroupEntries(entries []history.Entry) (groups []Group, broken int) {
	groups = make([]Group, 0, len(entries))
	for i := 0; i < len(entries); {
		e := entries[i]
		if e.Role == chat.RoleAssistant && len(e.ToolCalls) > 0 {
			end := i + 1
			for end < len(entries) && entries[end].Role == chat.RoleTool {
				end++
			}
			if end > i+1 && answersExactly(e.ToolCalls, entries[i+1:end]) {
				groups = append(groups, Group{Kind: GroupPair, Start: i, End: end})
				i = end
				continue
			}
			broken++
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups, broken
}

// answersExactly reports whether results contain one entry per call and
// nothing else. Calls are matched by id, or by tool name when ids are absent.
func answersExactly(calls []chat.ToolCall, results []history.Entry) bool {
	if len(calls) != len(results) {
		return false
	}
	want := make(map[string]int, len(calls))
	for _, c := range calls {
		want[callKey(c.ID, c.Name)]++
	}
	for _, r := range results {
		k := callKey(r.ToolCallID, r.ToolName)
		if want[k] == 0 {
			return false
		}
		want[k]--
	}
	return true
}

func callKey(id, name string) string {
	if id != "" {
		return "id:" + id
	}
	return "name:" + name
}
