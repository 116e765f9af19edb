package chat

import (
	"strings"

	irc "github.com/gempir/go-twitch-irc/v4"

	"github.com/golden-vcr/overlay/internal/emotes"
)

// newMessage converts an IRC PRIVMSG into a Message. Any tag may be missing, in which
// case the corresponding field is left empty; the ingest fills in the ID and arrival
// time.
func newMessage(m *irc.PrivateMessage) *Message {
	id := m.ID
	if id == "" {
		id = m.Tags["id"]
	}
	login := strings.ToLower(m.User.Name)
	if login == "" {
		login = strings.ToLower(m.Tags["login"])
	}
	sender := m.User.DisplayName
	if sender == "" {
		sender = m.User.Name
	}
	return &Message{
		ID:          id,
		Sender:      sender,
		SenderLogin: login,
		Body:        m.Message,
		Color:       m.User.Color,
		EmoteRanges: emotes.ParseTag(m.Tags["emotes"]),
		Badges:      parseBadgeTag(m.Tags["badges"]),
	}
}

// parseBadgeTag parses the IRC 'badges' tag, e.g. "broadcaster/1,subscriber/12", into
// an ordered list of badges. Entries without a set ID are dropped, and only the first
// occurrence of each set is kept.
func parseBadgeTag(raw string) []BadgeRef {
	if raw == "" {
		return nil
	}
	result := make([]BadgeRef, 0, 4)
	seen := make(map[string]struct{})
	for _, entry := range strings.Split(raw, ",") {
		setID, version, _ := strings.Cut(entry, "/")
		if setID == "" {
			continue
		}
		if _, ok := seen[setID]; ok {
			continue
		}
		seen[setID] = struct{}{}
		result = append(result, BadgeRef{SetID: setID, Version: version})
	}
	return result
}
