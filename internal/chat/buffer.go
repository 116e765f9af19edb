package chat

import (
	"strings"
	"time"
)

// messageBuffer holds the most recent chat messages in arrival order, up to capacity;
// adding a message beyond capacity evicts the oldest
type messageBuffer struct {
	messages []Message
	capacity int
}

// newMessageBuffer initializes an empty messageBuffer that will hold up to the given
// number of messages
func newMessageBuffer(capacity int) *messageBuffer {
	return &messageBuffer{
		messages: make([]Message, 0, capacity),
		capacity: capacity,
	}
}

// contains reports whether a message with the given ID is buffered
func (b *messageBuffer) contains(id string) bool {
	for i := range b.messages {
		if b.messages[i].ID == id {
			return true
		}
	}
	return false
}

// hasRecentDuplicate reports whether the given user already sent a message with the
// same body less than window before at
func (b *messageBuffer) hasRecentDuplicate(login string, body string, at time.Time, window time.Duration) bool {
	for i := len(b.messages) - 1; i >= 0; i-- {
		m := &b.messages[i]
		if at.Sub(m.ArrivedAt) >= window {
			break
		}
		if m.SenderLogin == login && m.Body == body {
			return true
		}
	}
	return false
}

// add appends a message, then evicts from the front to stay within capacity
func (b *messageBuffer) add(m Message) {
	b.messages = append(b.messages, m)
	b.trim()
}

// setCapacity changes the capacity, evicting the oldest messages if necessary
func (b *messageBuffer) setCapacity(capacity int) {
	b.capacity = capacity
	b.trim()
}

func (b *messageBuffer) trim() {
	if excess := len(b.messages) - b.capacity; excess > 0 {
		b.messages = append(b.messages[:0:0], b.messages[excess:]...)
	}
}

// remove deletes the message with the given ID, returning true if it was present
func (b *messageBuffer) remove(id string) bool {
	for i := range b.messages {
		if b.messages[i].ID == id {
			b.messages = append(b.messages[:i], b.messages[i+1:]...)
			return true
		}
	}
	return false
}

// removeBySender deletes all messages sent by the given user (compared
// case-insensitively), preserving the order of the rest, and returns the number of
// messages removed
func (b *messageBuffer) removeBySender(login string) int {
	kept := b.messages[:0]
	for _, m := range b.messages {
		if !strings.EqualFold(m.SenderLogin, login) {
			kept = append(kept, m)
		}
	}
	removed := len(b.messages) - len(kept)
	clear(b.messages[len(kept):])
	b.messages = kept
	return removed
}

// clear removes all messages
func (b *messageBuffer) clear() {
	b.messages = make([]Message, 0, b.capacity)
}

// lastArrival returns the arrival time of the newest message, or the zero time
func (b *messageBuffer) lastArrival() time.Time {
	if len(b.messages) == 0 {
		return time.Time{}
	}
	return b.messages[len(b.messages)-1].ArrivedAt
}

// snapshot returns a copy of the buffered messages, oldest first
func (b *messageBuffer) snapshot() []Message {
	result := make([]Message, len(b.messages))
	copy(result, b.messages)
	return result
}
