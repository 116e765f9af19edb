package chat

import (
	"context"
	"log/slog"
	"time"

	irc "github.com/gempir/go-twitch-irc/v4"
)

// TransportClient is the subset of the go-twitch-irc client used by an Agent
type TransportClient interface {
	IrcConnection
	OnPrivateMessage(func(irc.PrivateMessage))
	OnClearMessage(func(irc.ClearMessage))
	OnClearChatMessage(func(irc.ClearChatMessage))
	Join(channels ...string)
}

// NewAnonymousTransport returns a read-only Twitch IRC client
func NewAnonymousTransport() TransportClient {
	return irc.NewAnonymousClient()
}

// EventSink receives the events produced by an Agent
type EventSink func(ev Event)

// Agent is a single connection to a channel's chat. Every event it produces is tagged
// with its instance ID, so that once the agent has been superseded by a newer one, its
// late-arriving events can be recognized and discarded.
type Agent struct {
	instance   uint64
	channel    string
	client     TransportClient
	connection *Connection
	sink       EventSink
	logger     *slog.Logger
}

// NewAgent prepares an agent that will join the given channel; call Connect to start
// receiving chat
func NewAgent(instance uint64, channel string, client TransportClient, sink EventSink, logger *slog.Logger) *Agent {
	a := &Agent{
		instance: instance,
		channel:  channel,
		client:   client,
		sink:     sink,
		logger:   logger.With("channel", channel, "instance", instance),
	}
	client.OnPrivateMessage(a.handleMessage)
	client.OnClearMessage(a.handleClearMessage)
	client.OnClearChatMessage(a.handleClearChatMessage)
	client.Join(channel)
	a.connection = NewConnection(client, a.handleStateChange)
	return a
}

// Connect opens the connection, reporting progress as connectionStateChanged events.
// If freshSession is set, the successful connect tells the ingest to discard any
// messages buffered from a previous session. The connected event is submitted before
// the client delivers any message from the new connection, so a clear never discards
// chat from the session it's starting.
func (a *Agent) Connect(ctx context.Context, timeout time.Duration, freshSession bool) error {
	a.emitState(ConnectionStateConnecting, nil, false)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := a.connection.Open(ctx, func() {
		a.emitState(ConnectionStateConnected, nil, freshSession)
	})
	if err != nil {
		a.logger.Error("failed to connect to chat", "error", err)
		a.emitState(ConnectionStateFailed, err, false)
		return err
	}
	a.logger.Info("connected to chat")
	return nil
}

func (a *Agent) GetStatus() error {
	return a.connection.GetStatus()
}

func (a *Agent) Disconnect() error {
	return a.connection.Close()
}

// handleMessage is called in response to an IRC PRIVMSG
func (a *Agent) handleMessage(m irc.PrivateMessage) {
	a.logger.Debug("chat message", "id", m.ID, "user", m.User.Name, "text", m.Message)
	a.sink(Event{
		Kind:     EventKindMessage,
		Instance: a.instance,
		Message:  newMessage(&m),
	})
}

// handleClearMessage is called in response to an IRC CLEARMSG, which targets a single
// message ID for deletion
func (a *Agent) handleClearMessage(m irc.ClearMessage) {
	if m.TargetMsgID == "" {
		return
	}
	a.logger.Debug("chat message deleted", "id", m.TargetMsgID)
	a.sink(Event{
		Kind:     EventKindMessageDeleted,
		Instance: a.instance,
		TargetID: m.TargetMsgID,
	})
}

// handleClearChatMessage is called in response to an IRC CLEARCHAT, which is either a
// timeout (target user with a ban duration), a ban (target user with no duration), or
// a clear of the entire chat (no target user)
func (a *Agent) handleClearChatMessage(m irc.ClearChatMessage) {
	if m.TargetUsername == "" {
		a.logger.Debug("chat cleared")
		a.sink(Event{Kind: EventKindChatCleared, Instance: a.instance})
		return
	}

	kind := EventKindUserBanned
	if m.BanDuration > 0 {
		kind = EventKindUserTimedOut
	}
	a.logger.Debug("user removed from chat", "kind", kind, "user", m.TargetUsername, "duration", m.BanDuration)
	a.sink(Event{
		Kind:     kind,
		Instance: a.instance,
		Login:    m.TargetUsername,
	})
}

// handleStateChange is called when an established connection reconnects or ends
func (a *Agent) handleStateChange(state ConnectionState, err error) {
	if err != nil {
		a.logger.Warn("chat connection lost", "error", err)
	}
	a.emitState(state, err, false)
}

func (a *Agent) emitState(state ConnectionState, err error, freshSession bool) {
	status := &ConnectionStatus{
		State:        state,
		Channel:      a.channel,
		FreshSession: freshSession,
	}
	if err != nil {
		status.Error = err.Error()
	}
	a.sink(Event{
		Kind:       EventKindConnectionStateChanged,
		Instance:   a.instance,
		Connection: status,
	})
}
