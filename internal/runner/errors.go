package runner

import (
	"errors"
	"fmt"
)

// ErrTurnLimitExceeded is returned when the model still requests tools
// after the configured number of turns.
var ErrTurnLimitExceeded = errors.New("turn limit exceeded")

// ErrContextOverBudget is returned when the newest history group alone
// does not fit the token budget. No request is made.
var ErrContextOverBudget = errors.New("newest history group exceeds token budget")

// StreamInterruptedError reports a completion stream that failed or ended
// before the service signalled completion. The partial message is kept.
type StreamInterruptedError struct {
	Turn int
	Err  error
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("stream interrupted on turn %d: %v", e.Turn, e.Err)
}

func (e *StreamInterruptedError) Unwrap() error { return e.Err }
