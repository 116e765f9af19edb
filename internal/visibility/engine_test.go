package visibility

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/logging"
)

func Test_Engine(t *testing.T) {
	source := &mockMessageSource{changes: make(chan struct{}, 1)}
	views := &viewRecorder{}
	e := NewEngine(source, Policy{}, views.record, logging.Discard(), nil)
	now := t0
	e.now = func() time.Time { return now }

	// The first evaluation always publishes, even if nothing is visible
	e.evaluate()
	assert.Len(t, views.all(), 1)
	assert.Len(t, e.Current().Messages, 0)

	// Nothing changed, so nothing is published
	e.evaluate()
	assert.Len(t, views.all(), 1)

	source.set(msg("a", "alice", 0), msg("b", "bob", 0))
	e.evaluate()
	assert.Len(t, views.all(), 2)
	assert.Equal(t, []string{"a", "b"}, ids(e.Current().Messages))

	// Ignoring a user takes effect immediately
	e.SetPolicy(Policy{IgnoredUsers: []string{"bob"}, AutoHideSeconds: 5})
	assert.Len(t, views.all(), 3)
	assert.Equal(t, []string{"a"}, ids(e.Current().Messages))
	assert.Equal(t, []string{"bob"}, e.Policy().IgnoredUsers)

	// Setting an identical policy does not re-publish
	e.SetPolicy(Policy{IgnoredUsers: []string{"bob"}, AutoHideSeconds: 5})
	assert.Len(t, views.all(), 3)

	// Messages age out as time passes
	now = now.Add(4 * time.Second)
	e.evaluate()
	assert.Len(t, views.all(), 3)
	now = now.Add(time.Second)
	e.evaluate()
	got := views.all()
	assert.Len(t, got, 4)
	assert.Len(t, got[3].Messages, 0)
	assert.Equal(t, now, got[3].EvaluatedAt)
}

func Test_Engine_Run(t *testing.T) {
	source := &mockMessageSource{changes: make(chan struct{}, 1)}
	views := &viewRecorder{}
	e := NewEngine(source, Policy{}, views.record, logging.Discard(), nil)
	e.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return len(views.all()) == 1 })
	source.set(msg("a", "alice", 0))
	source.notify()
	waitFor(t, func() bool { return len(views.all()) == 2 })
	assert.Equal(t, []string{"a"}, ids(views.all()[1].Messages))

	cancel()
	<-done
}

type mockMessageSource struct {
	mu       sync.Mutex
	messages []chat.Message
	changes  chan struct{}
}

func (m *mockMessageSource) Snapshot() []chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]chat.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

func (m *mockMessageSource) Changes() <-chan struct{} {
	return m.changes
}

func (m *mockMessageSource) set(messages ...chat.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = messages
}

func (m *mockMessageSource) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

var _ MessageSource = (*mockMessageSource)(nil)

type viewRecorder struct {
	mu    sync.Mutex
	views []View
}

func (r *viewRecorder) record(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *viewRecorder) all() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]View, len(r.views))
	copy(result, r.views)
	return result
}

func waitFor(t *testing.T, condition func() bool) {
	deadline := time.Now().Add(time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
