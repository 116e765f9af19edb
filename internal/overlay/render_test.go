package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/overlay/internal/badges"
	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/emotes"
	"github.com/golden-vcr/overlay/internal/style"
	"github.com/golden-vcr/overlay/internal/visibility"
)

func Test_Renderer_Render(t *testing.T) {
	c := style.Defaults()
	c.ShowTimestamp = true
	c.BgOpacity = 50
	catalog := badges.Catalog{
		"moderator": {"1": "https://example.com/moderator-1.png"},
	}
	view := visibility.View{
		Messages: []chat.Message{
			{
				ID:          "a",
				Sender:      "Alice",
				SenderLogin: "alice",
				Body:        "Kappa hello",
				Color:       "#ff0000",
				ArrivedAt:   time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC),
				EmoteRanges: map[string][]string{"25": {"0-4"}},
				Badges:      []chat.BadgeRef{{SetID: "moderator", Version: "1"}, {SetID: "glhf-pledge", Version: "1"}},
			},
		},
	}

	r := NewRenderer(time.UTC)
	frame, errs := r.Render(view, c, catalog)
	assert.Len(t, errs, 0)
	assert.Equal(t, c, frame.Style)
	assert.Equal(t, []Line{
		{
			ID:              "a",
			Username:        "Alice",
			NameColor:       "#ff0000",
			AccentColor:     "#a855f7",
			BackgroundColor: "rgba(0,0,0,0.5)",
			Badges: []Badge{
				{SetID: "moderator", Kind: BadgeKindIcon, URL: "https://example.com/moderator-1.png", Glyph: "⚔️"},
			},
			Timestamp: "09:05",
			Segments:  []emotes.Segment{emotes.Emote("25"), emotes.Text(" hello")},
		},
	}, frame.Lines)
}

func Test_Renderer_Render_malformedEmotes(t *testing.T) {
	view := visibility.View{
		Messages: []chat.Message{
			{ID: "a", Body: "hi", EmoteRanges: map[string][]string{"25": {"0-40"}}},
		},
	}
	frame, errs := NewRenderer(time.UTC).Render(view, style.Defaults(), nil)
	assert.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], emotes.ErrMalformedRange)
	assert.Equal(t, []emotes.Segment{emotes.Text("hi")}, frame.Lines[0].Segments)
}

func Test_userColor(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		color   string
		want    string
	}{
		{"enabled with user color uses user color", true, "#123456", "#123456"},
		{"enabled without user color falls back to accent", true, "", "#accent"},
		{"disabled always uses accent", false, "#123456", "#accent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userColor(tt.enabled, tt.color, "#accent"))
		})
	}
}

func Test_backgroundColor(t *testing.T) {
	c := style.Defaults()
	c.BackgroundColor = "#000000"
	c.MsgBgCycleColors = []string{"#111111", "#222222", "#333333"}
	c.MsgBgRoleColors = map[string]string{
		"broadcaster": "#b00000",
		"moderator":   "#00b000",
		"viewer":      "#757575",
	}

	moderator := chat.Message{Badges: []chat.BadgeRef{{SetID: "subscriber", Version: "3"}, {SetID: "moderator", Version: "1"}}}
	vip := chat.Message{Badges: []chat.BadgeRef{{SetID: "vip", Version: "1"}}}
	viewer := chat.Message{}

	tests := []struct {
		name       string
		mode       style.BackgroundMode
		cycleCount int
		message    chat.Message
		index      int
		want       string
	}{
		{"solid mode uses background color", style.BackgroundModeSolid, 3, moderator, 0, "#000000"},
		{"role mode uses the most significant role", style.BackgroundModeRole, 3, moderator, 0, "#00b000"},
		{"role mode without a configured color falls back", style.BackgroundModeRole, 3, vip, 0, "#000000"},
		{"role mode treats no badges as viewer", style.BackgroundModeRole, 3, viewer, 0, "#757575"},
		{"cycle mode picks by index", style.BackgroundModeCycle, 3, viewer, 1, "#222222"},
		{"cycle mode wraps around", style.BackgroundModeCycle, 3, viewer, 4, "#222222"},
		{"cycle count limits the colors used", style.BackgroundModeCycle, 2, viewer, 2, "#111111"},
		{"cycle count beyond the colors available is clamped", style.BackgroundModeCycle, 10, viewer, 3, "#111111"},
		{"zero cycle count falls back", style.BackgroundModeCycle, 0, viewer, 1, "#000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.MsgBgMode = tt.mode
			c.MsgBgCycleCount = tt.cycleCount
			assert.Equal(t, tt.want, backgroundColor(tt.message, tt.index, c))
		})
	}
}

func Test_renderBadges(t *testing.T) {
	c := style.Defaults()
	c.BadgeStyles = map[string]style.BadgeStyle{
		"broadcaster": {Type: style.BadgeStyleDot, Color: "#e91e63"},
		"moderator":   {Type: style.BadgeStyleCustom, Color: "#00e676", CustomURL: "https://example.com/sword.png"},
		"vip":         {Type: style.BadgeStyleCustom, Color: "#e040fb"},
		"subscriber":  {Type: style.BadgeStyleIcon, Color: "#651fff"},
	}
	catalog := badges.Catalog{"subscriber": {"12": "https://example.com/sub-12.png"}}
	m := chat.Message{Badges: []chat.BadgeRef{
		{SetID: "broadcaster", Version: "1"},
		{SetID: "moderator", Version: "1"},
		{SetID: "vip", Version: "1"},
		{SetID: "subscriber", Version: "12"},
		{SetID: "premium", Version: "1"},
	}}

	assert.Equal(t, []Badge{
		{SetID: "broadcaster", Kind: BadgeKindDot, Color: "#e91e63"},
		{SetID: "moderator", Kind: BadgeKindImage, URL: "https://example.com/sword.png"},
		{SetID: "vip", Kind: BadgeKindIcon, Glyph: "💎"},
		{SetID: "subscriber", Kind: BadgeKindIcon, URL: "https://example.com/sub-12.png", Glyph: "⭐"},
	}, renderBadges(m, c, catalog))

	c.ShowBadges = false
	assert.Equal(t, []Badge{}, renderBadges(m, c, catalog))
}

func Test_hexToRgba(t *testing.T) {
	tests := []struct {
		hex     string
		opacity int
		want    string
	}{
		{"#000000", 70, "rgba(0,0,0,0.7)"},
		{"#ff8000", 100, "rgba(255,128,0,1)"},
		{"#FFF", 0, "rgba(255,255,255,0)"},
		{"red", 50, "red"},
		{"#12345", 50, "#12345"},
		{"", 50, ""},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			assert.Equal(t, tt.want, hexToRgba(tt.hex, tt.opacity))
		})
	}
}
