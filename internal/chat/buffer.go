package chat

// Buffer is a FIFO queue of raw tokens: Push adds at the tail, Pop removes
// from the head, so tokens leave in arrival order.
type Buffer struct {
	items []string
}

func (q *Buffer) Push(token string) {
	q.items = append(q.items, token)
}

// Pop removes and returns the oldest token.
func (q *Buffer) Pop() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	token := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return token, true
}

func (q *Buffer) Len() int { return len(q.items) }

func (q Buffer) clone() Buffer {
	if q.items == nil {
		return Buffer{}
	}
	return Buffer{items: append([]string(nil), q.items...)}
}
