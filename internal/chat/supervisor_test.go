package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	irc "github.com/gempir/go-twitch-irc/v4"
	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/overlay/internal/logging"
)

func Test_Supervisor(t *testing.T) {
	ingest := NewIngest(50, logging.Discard(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ingest.Run(ctx)

	factory := &fakeTransportFactory{}
	s := NewSupervisor(ingest, factory.newClient, time.Second, logging.Discard())
	defer s.Close()

	assert.ErrorIs(t, s.Retry(ctx), ErrNoChannel)
	assert.ErrorIs(t, s.Switch(ctx, "  "), ErrNoChannel)
	assert.ErrorIs(t, s.GetStatus(), ErrConnectionNotOpen)

	// Connect to a channel and receive a message
	err := s.Switch(ctx, " SomeChannel ")
	assert.NoError(t, err)
	assert.Equal(t, "somechannel", s.Channel())
	assert.Equal(t, uint64(1), ingest.ActiveInstance())
	assert.NoError(t, s.GetStatus())
	first := factory.get(0)
	assert.Equal(t, []string{"somechannel"}, first.joined)

	first.onPrivateMessage(privmsg("m1", "alice", "hello"))
	blockUntil(t, func() bool { return len(ingest.Snapshot()) == 1 }, 100*time.Millisecond)

	// Retrying preserves the buffer, and the superseded client can no longer reach it
	err = s.Retry(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), ingest.ActiveInstance())
	second := factory.get(1)
	first.onPrivateMessage(privmsg("m2", "alice", "stale"))
	second.onPrivateMessage(privmsg("m3", "bob", "current"))
	blockUntil(t, func() bool { return len(ingest.Snapshot()) == 2 }, 100*time.Millisecond)
	assert.Equal(t, []string{"m1", "m3"}, ids(ingest.Snapshot()))
	blockUntil(t, func() bool { return ingest.Status().State == ConnectionStateConnected }, 100*time.Millisecond)

	// Switching to the same channel is not a session change
	err = s.Switch(ctx, "somechannel")
	assert.NoError(t, err)
	third := factory.get(2)
	third.onPrivateMessage(privmsg("m4", "bob", "still here"))
	blockUntil(t, func() bool { return len(ingest.Snapshot()) == 3 }, 100*time.Millisecond)

	// A failed switch to another channel leaves the buffer alone, but the session change
	// stays pending until a connection succeeds
	factory.failNext(fmt.Errorf("mock error"))
	err = s.Switch(ctx, "otherchannel")
	assert.ErrorContains(t, err, "mock error")
	assert.Equal(t, "otherchannel", s.Channel())
	blockUntil(t, func() bool { return ingest.Status().State == ConnectionStateFailed }, 100*time.Millisecond)
	assert.Len(t, ingest.Snapshot(), 3)

	err = s.Retry(ctx)
	assert.NoError(t, err)
	blockUntil(t, func() bool { return ingest.Status().State == ConnectionStateConnected }, 100*time.Millisecond)
	assert.Len(t, ingest.Snapshot(), 0)
	assert.Equal(t, "otherchannel", ingest.Status().Channel)

	// Once the fresh session has started, retries preserve the buffer again
	latest := factory.get(4)
	latest.onPrivateMessage(privmsg("m5", "carol", "hi"))
	blockUntil(t, func() bool { return len(ingest.Snapshot()) == 1 }, 100*time.Millisecond)
	err = s.Retry(ctx)
	assert.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, []string{"m5"}, ids(ingest.Snapshot()))
}

func privmsg(id string, login string, text string) irc.PrivateMessage {
	return irc.PrivateMessage{
		ID:      id,
		User:    irc.User{Name: login, DisplayName: login},
		Message: text,
	}
}

type fakeTransportFactory struct {
	mu      sync.Mutex
	clients []*fakeTransport
	nextErr error
}

func (f *fakeTransportFactory) newClient() TransportClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	client := newFakeTransport(f.nextErr)
	f.nextErr = nil
	f.clients = append(f.clients, client)
	return client
}

func (f *fakeTransportFactory) failNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextErr = err
}

func (f *fakeTransportFactory) get(index int) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[index]
}
