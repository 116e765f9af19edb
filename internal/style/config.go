package style

// BackgroundMode determines how the background color of each chat line is chosen
type BackgroundMode string

const (
	// BackgroundModeSolid uses Config.BackgroundColor for every line
	BackgroundModeSolid BackgroundMode = "solid"
	// BackgroundModeRole picks a color from Config.MsgBgRoleColors based on the
	// sender's most significant badge
	BackgroundModeRole BackgroundMode = "role"
	// BackgroundModeCycle alternates through Config.MsgBgCycleColors
	BackgroundModeCycle BackgroundMode = "cycle"
)

// BadgeStyleType determines how a badge is drawn next to a username
type BadgeStyleType string

const (
	BadgeStyleDot    BadgeStyleType = "dot"
	BadgeStyleIcon   BadgeStyleType = "icon"
	BadgeStyleCustom BadgeStyleType = "custom"
)

// BadgeStyle configures the presentation of a single badge set (e.g. 'moderator')
type BadgeStyle struct {
	Type      BadgeStyleType `json:"type"`
	Color     string         `json:"color"`
	CustomURL string         `json:"customUrl,omitempty"`
}

// BorderSides records which edges of a chat line have a border drawn
type BorderSides struct {
	Top    bool `json:"top"`
	Right  bool `json:"right"`
	Bottom bool `json:"bottom"`
	Left   bool `json:"left"`
}

// Config is the fully-resolved set of options that controls how the overlay renders
// chat, including the display policies (max messages, auto-hide, ignored users) that
// feed the visibility engine
type Config struct {
	FontFamily      string `json:"fontFamily"`
	FontSize        int    `json:"fontSize"`
	IsBold          bool   `json:"isBold"`
	TextColor       string `json:"textColor"`
	BackgroundColor string `json:"backgroundColor"`
	BackgroundImage string `json:"backgroundImage"`
	AccentColor     string `json:"accentColor"`

	UseUserColorForAccent bool `json:"useUserColorForAccent"`
	UseUserColorForName   bool `json:"useUserColorForName"`

	BorderRadius int    `json:"borderRadius"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Position     string `json:"position"`
	Direction    string `json:"direction"`
	MaxMessages  int    `json:"maxMessages"`

	ShowTimestamp     bool   `json:"showTimestamp"`
	TimestampColor    string `json:"timestampColor"`
	TimestampFontSize int    `json:"timestampFontSize"`
	TimestampIsBold   bool   `json:"timestampIsBold"`

	Padding          int `json:"padding"`
	ContainerPadding int `json:"containerPadding"`
	Margin           int `json:"margin"`
	BgOpacity        int `json:"bgOpacity"`

	BorderRadiusTL int `json:"borderRadiusTL"`
	BorderRadiusTR int `json:"borderRadiusTR"`
	BorderRadiusBL int `json:"borderRadiusBL"`
	BorderRadiusBR int `json:"borderRadiusBR"`

	MsgBgMode        BackgroundMode    `json:"msgBgMode"`
	MsgBgCycleColors []string          `json:"msgBgCycleColors"`
	MsgBgCycleCount  int               `json:"msgBgCycleCount"`
	MsgBgRoleColors  map[string]string `json:"msgBgRoleColors"`

	TextOutlineEnabled bool   `json:"textOutlineEnabled"`
	TextOutlineColor   string `json:"textOutlineColor"`

	ShowBadges  bool                  `json:"showBadges"`
	BadgeStyles map[string]BadgeStyle `json:"badgeStyles"`

	IgnoredUsers    []string `json:"ignoredUsers"`
	AutoHideSeconds int      `json:"autoHideSeconds"`
	AnimationEntry  string   `json:"animationEntry"`
	AnimationExit   string   `json:"animationExit"`

	BorderEnabled   bool        `json:"borderEnabled"`
	BorderThickness int         `json:"borderThickness"`
	BorderColor     string      `json:"borderColor"`
	BorderSides     BorderSides `json:"borderSides"`

	ShadowEnabled bool   `json:"shadowEnabled"`
	ShadowColor   string `json:"shadowColor"`
	ShadowOpacity int    `json:"shadowOpacity"`
	ShadowBlur    int    `json:"shadowBlur"`
	ShadowOffsetX int    `json:"shadowOffsetX"`
	ShadowOffsetY int    `json:"shadowOffsetY"`
}

// DefaultMaxMessages is the message cap used when no positive value is configured
const DefaultMaxMessages = 50

// Role names recognized in MsgBgRoleColors, ordered from most to least significant
var Roles = []string{"broadcaster", "moderator", "vip", "subscriber", "viewer"}

// Defaults returns the compiled-in configuration. Each call returns a fresh value, so
// callers are free to modify the maps and slices it contains.
func Defaults() Config {
	return Config{
		FontFamily:      "Inter, sans-serif",
		FontSize:        16,
		IsBold:          false,
		TextColor:       "#ffffff",
		BackgroundColor: "#000000",
		BackgroundImage: "",
		AccentColor:     "#a855f7",

		UseUserColorForAccent: false,
		UseUserColorForName:   true,

		BorderRadius: 8,
		Width:        400,
		Height:       600,
		Position:     "bottom-left",
		Direction:    "down",
		MaxMessages:  DefaultMaxMessages,

		ShowTimestamp:     false,
		TimestampColor:    "#999999",
		TimestampFontSize: 12,
		TimestampIsBold:   false,

		Padding:          12,
		ContainerPadding: 16,
		Margin:           8,
		BgOpacity:        70,

		BorderRadiusTL: 8,
		BorderRadiusTR: 8,
		BorderRadiusBL: 8,
		BorderRadiusBR: 8,

		MsgBgMode:        BackgroundModeSolid,
		MsgBgCycleColors: []string{"#FF0000", "#00FF00", "#0000FF"},
		MsgBgCycleCount:  3,
		MsgBgRoleColors: map[string]string{
			"broadcaster": "#FFD700",
			"moderator":   "#00E676",
			"vip":         "#E040FB",
			"subscriber":  "#651FFF",
			"viewer":      "#757575",
		},

		TextOutlineEnabled: false,
		TextOutlineColor:   "#000000",

		ShowBadges: true,
		BadgeStyles: map[string]BadgeStyle{
			"broadcaster": {Type: BadgeStyleIcon, Color: "#e91e63"},
			"moderator":   {Type: BadgeStyleIcon, Color: "#00e676"},
			"vip":         {Type: BadgeStyleIcon, Color: "#e040fb"},
			"subscriber":  {Type: BadgeStyleIcon, Color: "#651fff"},
		},

		IgnoredUsers:    []string{},
		AutoHideSeconds: 0,
		AnimationEntry:  "fade",
		AnimationExit:   "fade",

		BorderEnabled:   true,
		BorderThickness: 4,
		BorderColor:     "",
		BorderSides:     BorderSides{Left: true},

		ShadowEnabled: false,
		ShadowColor:   "#000000",
		ShadowOpacity: 50,
		ShadowBlur:    6,
		ShadowOffsetX: 0,
		ShadowOffsetY: 4,
	}
}
