package overlay

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golden-vcr/overlay/internal/badges"
	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/emotes"
	"github.com/golden-vcr/overlay/internal/style"
	"github.com/golden-vcr/overlay/internal/visibility"
)

// BadgeKind determines how a rendered badge is drawn
type BadgeKind string

const (
	BadgeKindDot   BadgeKind = "dot"
	BadgeKindImage BadgeKind = "image"
	BadgeKindIcon  BadgeKind = "icon"
)

// Badge is a single badge drawn before a username
type Badge struct {
	SetID string    `json:"setId"`
	Kind  BadgeKind `json:"kind"`
	Color string    `json:"color,omitempty"`
	URL   string    `json:"url,omitempty"`
	Glyph string    `json:"glyph,omitempty"`
}

// Line is a chat message resolved into everything the overlay needs to draw it
type Line struct {
	ID              string           `json:"id"`
	Username        string           `json:"username"`
	NameColor       string           `json:"nameColor"`
	AccentColor     string           `json:"accentColor"`
	BackgroundColor string           `json:"backgroundColor"`
	Badges          []Badge          `json:"badges"`
	Timestamp       string           `json:"timestamp,omitempty"`
	Segments        []emotes.Segment `json:"segments"`
}

// Frame is the complete state of the overlay at one moment: the configuration it
// should be drawn with, and the visible lines, oldest first
type Frame struct {
	Style style.Config `json:"style"`
	Lines []Line       `json:"lines"`
}

// badgeGlyphs are drawn for icon-style badges when no image is available
var badgeGlyphs = map[string]string{
	"broadcaster": "👑",
	"moderator":   "⚔️",
	"vip":         "💎",
}

const defaultBadgeGlyph = "⭐"

// Renderer turns the visible messages into a Frame
type Renderer struct {
	location *time.Location
}

func NewRenderer(location *time.Location) *Renderer {
	if location == nil {
		location = time.Local
	}
	return &Renderer{location: location}
}

// Render resolves every visible message. Malformed emote ranges are skipped: the
// affected text is shown as-is, and the problems are returned for logging.
func (r *Renderer) Render(view visibility.View, c style.Config, catalog badges.Catalog) (Frame, []error) {
	var errs []error
	lines := make([]Line, 0, len(view.Messages))
	for i, m := range view.Messages {
		line, lineErrs := r.renderLine(m, i, c, catalog)
		lines = append(lines, line)
		for _, err := range lineErrs {
			errs = append(errs, fmt.Errorf("message %s: %w", m.ID, err))
		}
	}
	return Frame{Style: c, Lines: lines}, errs
}

func (r *Renderer) renderLine(m chat.Message, index int, c style.Config, catalog badges.Catalog) (Line, []error) {
	segments, errs := emotes.RenderSpans(m.Body, m.EmoteRanges)
	line := Line{
		ID:              m.ID,
		Username:        m.Sender,
		NameColor:       userColor(c.UseUserColorForName, m.Color, c.AccentColor),
		AccentColor:     userColor(c.UseUserColorForAccent, m.Color, c.AccentColor),
		BackgroundColor: hexToRgba(backgroundColor(m, index, c), c.BgOpacity),
		Badges:          renderBadges(m, c, catalog),
		Segments:        segments,
	}
	if c.ShowTimestamp {
		line.Timestamp = m.ArrivedAt.In(r.location).Format("15:04")
	}
	return line, errs
}

// userColor picks the sender's own color when enabled and set, or the accent color
func userColor(enabled bool, color string, accent string) string {
	if enabled && color != "" {
		return color
	}
	return accent
}

// backgroundColor resolves the line's background color for the configured mode
func backgroundColor(m chat.Message, index int, c style.Config) string {
	switch c.MsgBgMode {
	case style.BackgroundModeRole:
		if color, ok := c.MsgBgRoleColors[roleOf(m)]; ok && color != "" {
			return color
		}
	case style.BackgroundModeCycle:
		n := min(c.MsgBgCycleCount, len(c.MsgBgCycleColors))
		if n > 0 {
			return c.MsgBgCycleColors[index%n]
		}
	}
	return c.BackgroundColor
}

// roleOf returns the most significant role indicated by the sender's badges
func roleOf(m chat.Message) string {
	for _, role := range style.Roles {
		if m.HasBadge(role) {
			return role
		}
	}
	return "viewer"
}

// renderBadges draws the badges that have a configured style, in the order Twitch
// reported them
func renderBadges(m chat.Message, c style.Config, catalog badges.Catalog) []Badge {
	result := make([]Badge, 0, len(m.Badges))
	if !c.ShowBadges {
		return result
	}
	for _, ref := range m.Badges {
		bs, ok := c.BadgeStyles[ref.SetID]
		if !ok {
			continue
		}
		switch {
		case bs.Type == style.BadgeStyleDot:
			result = append(result, Badge{SetID: ref.SetID, Kind: BadgeKindDot, Color: bs.Color})
		case bs.Type == style.BadgeStyleCustom && bs.CustomURL != "":
			result = append(result, Badge{SetID: ref.SetID, Kind: BadgeKindImage, URL: bs.CustomURL})
		default:
			badge := Badge{SetID: ref.SetID, Kind: BadgeKindIcon, Glyph: defaultBadgeGlyph}
			if glyph, ok := badgeGlyphs[ref.SetID]; ok {
				badge.Glyph = glyph
			}
			if url, ok := catalog.Lookup(ref.SetID, ref.Version); ok {
				badge.URL = url
			}
			result = append(result, badge)
		}
	}
	return result
}

var hexColorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{3}){1,2}$`)

// hexToRgba converts a '#rgb' or '#rrggbb' color to an rgba() color with the given
// opacity percentage; any other value is returned unchanged
func hexToRgba(hex string, opacity int) string {
	if !hexColorRegex.MatchString(hex) {
		return hex
	}
	digits := hex[1:]
	if len(digits) == 3 {
		digits = strings.Repeat(digits[0:1], 2) + strings.Repeat(digits[1:2], 2) + strings.Repeat(digits[2:3], 2)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return hex
	}
	alpha := strconv.FormatFloat(float64(opacity)/100, 'f', -1, 64)
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", (v>>16)&255, (v>>8)&255, v&255, alpha)
}
