package style

import (
	"maps"
	"slices"
	"strings"
)

// Merge resolves the effective configuration from three sources, in increasing order
// of precedence: compiled-in defaults, a snapshot parsed from the overlay URL, and the
// locally-persisted snapshot. Role colors and badge styles are merged per key, so a
// snapshot that only overrides one role keeps the remaining entries.
func Merge(defaults Config, url Snapshot, local Snapshot) Config {
	c := clone(defaults)
	url.applyTo(&c)
	local.applyTo(&c)
	return Normalize(c)
}

// Normalize coerces values that would otherwise be meaningless to the display
// policies: a non-positive message cap falls back to DefaultMaxMessages, a negative
// auto-hide delay disables auto-hide, and ignored usernames are lowercased, trimmed
// and deduplicated. Nil maps and slices are replaced with empty ones.
func Normalize(c Config) Config {
	c = clone(c)
	if c.MaxMessages <= 0 {
		c.MaxMessages = DefaultMaxMessages
	}
	if c.AutoHideSeconds < 0 {
		c.AutoHideSeconds = 0
	}
	if c.MsgBgCycleCount < 0 {
		c.MsgBgCycleCount = 0
	}
	ignored := make([]string, 0, len(c.IgnoredUsers))
	for _, login := range c.IgnoredUsers {
		login = strings.ToLower(strings.TrimSpace(login))
		if login != "" && !slices.Contains(ignored, login) {
			ignored = append(ignored, login)
		}
	}
	c.IgnoredUsers = ignored
	return c
}

// clone returns a copy of c that shares no maps or slices with the original
func clone(c Config) Config {
	c.MsgBgCycleColors = slices.Clone(c.MsgBgCycleColors)
	if c.MsgBgCycleColors == nil {
		c.MsgBgCycleColors = []string{}
	}
	c.IgnoredUsers = slices.Clone(c.IgnoredUsers)
	if c.IgnoredUsers == nil {
		c.IgnoredUsers = []string{}
	}
	c.MsgBgRoleColors = maps.Clone(c.MsgBgRoleColors)
	if c.MsgBgRoleColors == nil {
		c.MsgBgRoleColors = make(map[string]string)
	}
	c.BadgeStyles = maps.Clone(c.BadgeStyles)
	if c.BadgeStyles == nil {
		c.BadgeStyles = make(map[string]BadgeStyle)
	}
	return c
}
