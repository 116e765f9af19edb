package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/golden-vcr/overlay/internal/metrics"
)

// DuplicateWindow is how long after a message we'll suppress an identical message
// from the same user, when the transport hasn't given us IDs to compare
const DuplicateWindow = 2 * time.Second

// messageIdNamespace seeds the name-based UUIDs we synthesize for messages that arrive
// without an ID
var messageIdNamespace = uuid.MustParse("8f3e0b0c-54f4-4cf2-9a4e-0d7f6d1c2a71")

// Ingest owns the message buffer. Transport events are queued with Submit and applied
// by a single goroutine (Run) in the order they were received; every mutation of the
// buffer happens under the ingest's lock, and readers only ever see copies.
type Ingest struct {
	events  chan Event
	changes chan struct{}
	done    chan struct{}

	mu          sync.RWMutex
	buffer      *messageBuffer
	instance    uint64
	status      ConnectionStatus
	subscribers map[chan struct{}]struct{}
	now         func() time.Time

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewIngest returns an Ingest that retains up to maxMessages messages
func NewIngest(maxMessages int, logger *slog.Logger, m *metrics.Metrics) *Ingest {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	return &Ingest{
		events:      make(chan Event, 256),
		changes:     make(chan struct{}, 1),
		done:        make(chan struct{}),
		buffer:      newMessageBuffer(maxMessages),
		status:      ConnectionStatus{State: ConnectionStateIdle},
		subscribers: make(map[chan struct{}]struct{}),
		now:         time.Now,
		logger:      logger,
		metrics:     m,
	}
}

// Submit queues an event to be applied by Run. It blocks while the queue is full, so
// that no event is ever dropped or reordered, and returns false only once Run has
// exited.
func (i *Ingest) Submit(ev Event) bool {
	select {
	case <-i.done:
		return false
	default:
	}
	select {
	case i.events <- ev:
		return true
	case <-i.done:
		return false
	}
}

// Run applies queued events until the context is canceled
func (i *Ingest) Run(ctx context.Context) error {
	defer close(i.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-i.events:
			i.apply(ev)
		}
	}
}

// Changes signals (without blocking the ingest) whenever the buffer or connection
// state has changed; several changes may be coalesced into one signal
func (i *Ingest) Changes() <-chan struct{} {
	return i.changes
}

// Subscribe returns a channel that is signaled just like Changes, for an additional
// reader of the buffer. Call the returned func to stop receiving signals.
func (i *Ingest) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	i.mu.Lock()
	i.subscribers[ch] = struct{}{}
	i.mu.Unlock()
	return ch, func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.subscribers, ch)
	}
}

// Snapshot returns a copy of the buffered messages, oldest first
func (i *Ingest) Snapshot() []Message {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.buffer.snapshot()
}

// Status returns the most recently reported connection state
func (i *Ingest) Status() ConnectionStatus {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// ActiveInstance returns the ID of the transport connection whose events are
// currently being accepted
func (i *Ingest) ActiveInstance() uint64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.instance
}

// BeginSession makes the given connection instance the active one: from now on,
// events tagged with any other instance are discarded
func (i *Ingest) BeginSession(instance uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.instance = instance
}

// SetMaxMessages changes the buffer's capacity, immediately evicting the oldest
// messages if the buffer is now over capacity
func (i *Ingest) SetMaxMessages(n int) {
	if n <= 0 {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	before := len(i.buffer.messages)
	i.buffer.setCapacity(n)
	if len(i.buffer.messages) != before {
		i.metrics.SetBufferSize(len(i.buffer.messages))
		i.notify()
	}
}

// apply handles a single event
func (i *Ingest) apply(ev Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if ev.Instance != i.instance {
		i.metrics.IncEventsRejected("stale_instance")
		i.logger.Debug("discarding event from inactive connection", "kind", ev.Kind, "instance", ev.Instance, "active", i.instance)
		return
	}

	changed := false
	switch ev.Kind {
	case EventKindMessage:
		changed = i.handleMessage(ev.Message)
	case EventKindMessageDeleted:
		changed = i.buffer.remove(ev.TargetID)
	case EventKindUserTimedOut, EventKindUserBanned:
		changed = ev.Login != "" && i.buffer.removeBySender(ev.Login) > 0
	case EventKindChatCleared:
		changed = len(i.buffer.messages) > 0
		i.buffer.clear()
	case EventKindConnectionStateChanged:
		changed = i.handleConnectionState(ev.Connection)
	default:
		i.logger.Warn("ignoring unknown chat event", "kind", ev.Kind)
	}

	if changed {
		i.metrics.SetBufferSize(len(i.buffer.messages))
		i.notify()
	}
}

func (i *Ingest) handleMessage(m *Message) bool {
	if m == nil {
		return false
	}
	msg := *m

	// Stamp the message with our own clock, never letting arrival times go backwards
	msg.ArrivedAt = i.now()
	if last := i.buffer.lastArrival(); msg.ArrivedAt.Before(last) {
		msg.ArrivedAt = last
	}

	if msg.ID == "" {
		if i.buffer.hasRecentDuplicate(msg.SenderLogin, msg.Body, msg.ArrivedAt, DuplicateWindow) {
			i.metrics.IncEventsRejected("duplicate_content")
			return false
		}
		msg.ID = synthesizeMessageId(msg.SenderLogin, msg.Body, msg.ArrivedAt)
		msg.Synthesized = true
	}
	if i.buffer.contains(msg.ID) {
		i.metrics.IncEventsRejected("duplicate_id")
		return false
	}

	i.buffer.add(msg)
	i.metrics.IncMessagesIngested()
	return true
}

func (i *Ingest) handleConnectionState(status *ConnectionStatus) bool {
	if status == nil {
		return false
	}
	i.status = *status
	i.metrics.SetChatConnected(status.State == ConnectionStateConnected)
	i.logger.Info("chat connection state changed", "state", status.State, "channel", status.Channel, "error", status.Error)
	if status.State == ConnectionStateConnected && status.FreshSession {
		i.buffer.clear()
	}
	return true
}

// notify signals a change without blocking; a pending signal already covers this one.
// Must be called with i.mu held.
func (i *Ingest) notify() {
	select {
	case i.changes <- struct{}{}:
	default:
	}
	for ch := range i.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func synthesizeMessageId(login string, body string, arrivedAt time.Time) string {
	name := fmt.Sprintf("%s\x00%s\x00%d", login, body, arrivedAt.UnixNano())
	return uuid.NewSHA1(messageIdNamespace, []byte(name)).String()
}
