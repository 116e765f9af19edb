// Package visibility decides which buffered chat messages are currently shown.
package visibility

import (
	"strings"
	"time"

	"github.com/golden-vcr/overlay/internal/chat"
)

// Policy is the subset of the style configuration that controls visibility
type Policy struct {
	IgnoredUsers    []string
	AutoHideSeconds int
	MaxMessages     int
}

// ComputeVisible returns the messages from buffer (oldest first) that should be shown
// at the given time. Messages from ignored users are dropped first, then messages that
// are at least AutoHideSeconds old (unless AutoHideSeconds is 0), and finally all but
// the newest MaxMessages (unless MaxMessages is 0). The buffer is not modified.
func ComputeVisible(buffer []chat.Message, p Policy, now time.Time) []chat.Message {
	ignored := make(map[string]struct{}, len(p.IgnoredUsers))
	for _, login := range p.IgnoredUsers {
		ignored[strings.ToLower(strings.TrimSpace(login))] = struct{}{}
	}
	maxAge := time.Duration(p.AutoHideSeconds) * time.Second

	visible := make([]chat.Message, 0, len(buffer))
	for _, m := range buffer {
		if _, ok := ignored[strings.ToLower(m.SenderLogin)]; ok {
			continue
		}
		if maxAge > 0 && now.Sub(m.ArrivedAt) >= maxAge {
			continue
		}
		visible = append(visible, m)
	}
	if p.MaxMessages > 0 && len(visible) > p.MaxMessages {
		visible = visible[len(visible)-p.MaxMessages:]
	}
	return visible
}

// sameIds reports whether two message lists have the same IDs in the same order
func sameIds(a []chat.Message, b []chat.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
