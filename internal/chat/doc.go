// Package chat holds the structured conversation model.
//
// Invariants:
//   - A conversation's messages are append-only; nothing is removed or reordered.
//   - A message's Contents are append-only; only the last block receives text.
//   - A tool-request block is followed by exactly one tool-result block for the
//     same call once the tool completes. A request without a result marks a
//     failed invocation.
//   - At most one message is generating at a time (Conversation.Generating).
package chat
