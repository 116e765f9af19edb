package chat

import "time"

// Message is a single chat line as held in the message buffer
type Message struct {
	// ID is the transport-assigned message ID, or a synthesized one if the transport
	// didn't supply an ID
	ID          string `json:"id"`
	Synthesized bool   `json:"-"`

	// Sender is the user's display name; SenderLogin is their lowercase login name,
	// used for ignore lists and moderation
	Sender      string `json:"sender"`
	SenderLogin string `json:"senderLogin"`

	Body  string `json:"body"`
	Color string `json:"color,omitempty"`

	// ArrivedAt is stamped by the ingest when the message is accepted
	ArrivedAt time.Time `json:"arrivedAt"`

	// EmoteRanges maps emote ID to raw inclusive "start-end" ranges within Body
	EmoteRanges map[string][]string `json:"emoteRanges,omitempty"`

	// Badges lists the sender's badges in the order Twitch reports them
	Badges []BadgeRef `json:"badges,omitempty"`
}

// BadgeRef identifies a single badge: a set ID (e.g. 'subscriber') and the version
// within that set (e.g. '12')
type BadgeRef struct {
	SetID   string `json:"setId"`
	Version string `json:"version"`
}

// BadgeMap returns the message's badges as a map of set ID to version
func (m *Message) BadgeMap() map[string]string {
	result := make(map[string]string, len(m.Badges))
	for _, b := range m.Badges {
		result[b.SetID] = b.Version
	}
	return result
}

// HasBadge reports whether the sender has any version of the given badge set
func (m *Message) HasBadge(setID string) bool {
	for _, b := range m.Badges {
		if b.SetID == setID {
			return true
		}
	}
	return false
}

// EventKind identifies one of the six kinds of event that the ingest handles
type EventKind string

const (
	EventKindMessage                EventKind = "message"
	EventKindMessageDeleted         EventKind = "messageDeleted"
	EventKindUserTimedOut           EventKind = "userTimedOut"
	EventKindUserBanned             EventKind = "userBanned"
	EventKindChatCleared            EventKind = "chatCleared"
	EventKindConnectionStateChanged EventKind = "connectionStateChanged"
)

// Event is a tagged union of everything the chat transport can tell us. Instance
// identifies the transport connection that produced the event; the ingest discards
// events from any connection other than the active one.
type Event struct {
	Kind     EventKind
	Instance uint64

	// Message is set for EventKindMessage
	Message *Message
	// TargetID is set for EventKindMessageDeleted
	TargetID string
	// Login is set for EventKindUserTimedOut and EventKindUserBanned
	Login string
	// Connection is set for EventKindConnectionStateChanged
	Connection *ConnectionStatus
}

// ConnectionState describes the chat transport connection
type ConnectionState string

const (
	ConnectionStateIdle         ConnectionState = "idle"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateFailed       ConnectionState = "failed"
)

// ConnectionStatus is the payload of a connectionStateChanged event, and the state
// that the ingest exposes to observers
type ConnectionStatus struct {
	State   ConnectionState `json:"state"`
	Channel string          `json:"channel"`
	Error   string          `json:"error,omitempty"`

	// FreshSession is set on the first successful connect following an explicit
	// session change, and causes the buffer to be cleared
	FreshSession bool `json:"-"`
}
