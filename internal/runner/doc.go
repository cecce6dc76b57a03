// Package runner drives assistant turns: it streams a completion into the
// generating message, executes the tool calls the model announced, and
// resubmits the re-projected history until a turn announces none.
//
// Invariants:
//   - one message generates at a time; the pointer is cleared on every exit path.
//   - tool calls run one after another in announcement order.
//   - a failed tool call leaves its request block without a result and ends the chain.
//
// Flow:
//
//	user(text) -> assistant[chat, tool-request, tool-result, ..., chat]
package runner
