package chat

import (
	"errors"
	"sync"
)

// ErrMessageNotFound is returned when a message id is not part of the conversation.
var ErrMessageNotFound = errors.New("message not found")

// Snapshot is a read-only copy of the conversation handed to observers.
type Snapshot struct {
	Messages   []Message
	Generating string // id of the generating message, "" when idle
}

// Observer is called with a fresh snapshot after every mutation.
type Observer func(Snapshot)

// Conversation owns the ordered messages and the generating pointer.
// Mutations go through Append and Update; readers only ever get copies.
type Conversation struct {
	mu         sync.RWMutex
	messages   []*Message
	generating string
	observers  []Observer
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Subscribe registers o for all subsequent mutations.
func (c *Conversation) Subscribe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Append adds m to the end of the conversation.
func (c *Conversation) Append(m *Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
	c.publish()
}

// Update runs fn against the message with the given id and publishes the
// result. Messages are looked up from the end since the one being updated is
// almost always the newest.
func (c *Conversation) Update(id string, fn func(m *Message)) error {
	c.mu.Lock()
	m := c.find(id)
	if m == nil {
		c.mu.Unlock()
		return ErrMessageNotFound
	}
	fn(m)
	c.mu.Unlock()
	c.publish()
	return nil
}

// Get returns a copy of the message with the given id.
func (c *Conversation) Get(id string) (Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.find(id)
	if m == nil {
		return Message{}, ErrMessageNotFound
	}
	return m.Clone(), nil
}

// Messages returns copies of all messages in order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyMessages()
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// SetGenerating marks id as the generating message.
func (c *Conversation) SetGenerating(id string) {
	c.mu.Lock()
	c.generating = id
	c.mu.Unlock()
	c.publish()
}

// ClearGenerating resets the generating pointer.
func (c *Conversation) ClearGenerating() {
	c.mu.Lock()
	c.generating = ""
	c.mu.Unlock()
	c.publish()
}

func (c *Conversation) Generating() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generating
}

func (c *Conversation) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Messages: c.copyMessages(), Generating: c.generating}
}

func (c *Conversation) find(id string) *Message {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			return c.messages[i]
		}
	}
	return nil
}

func (c *Conversation) copyMessages() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

func (c *Conversation) publish() {
	c.mu.RLock()
	if len(c.observers) == 0 {
		c.mu.RUnlock()
		return
	}
	observers := append([]Observer(nil), c.observers...)
	snap := Snapshot{Messages: c.copyMessages(), Generating: c.generating}
	c.mu.RUnlock()
	for _, o := range observers {
		o(snap)
	}
}
