// Package windowing trims a projected history to a token budget without
// separating a tool request from the tool results that answer it.
//
// Groups:
//   - pair: an assistant entry carrying tool calls plus the tool entries
//     immediately after it, when those entries answer exactly those calls.
//   - singleton: everything else.
//
// Leading system entries are always sent and count against the budget first.
package windowing
