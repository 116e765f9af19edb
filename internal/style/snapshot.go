package style

import "reflect"

// Snapshot is a partial Config: every field may be absent, in which case the value
// from a lower-precedence source is used. Snapshots come from overlay URL parameters,
// from the persisted local store, and from user imports.
type Snapshot struct {
	FontFamily      Optional[string] `json:"fontFamily,omitzero"`
	FontSize        Optional[int]    `json:"fontSize,omitzero"`
	IsBold          Optional[bool]   `json:"isBold,omitzero"`
	TextColor       Optional[string] `json:"textColor,omitzero"`
	BackgroundColor Optional[string] `json:"backgroundColor,omitzero"`
	BackgroundImage Optional[string] `json:"backgroundImage,omitzero"`
	AccentColor     Optional[string] `json:"accentColor,omitzero"`

	UseUserColorForAccent Optional[bool] `json:"useUserColorForAccent,omitzero"`
	UseUserColorForName   Optional[bool] `json:"useUserColorForName,omitzero"`

	BorderRadius Optional[int]    `json:"borderRadius,omitzero"`
	Width        Optional[int]    `json:"width,omitzero"`
	Height       Optional[int]    `json:"height,omitzero"`
	Position     Optional[string] `json:"position,omitzero"`
	Direction    Optional[string] `json:"direction,omitzero"`
	MaxMessages  Optional[int]    `json:"maxMessages,omitzero"`

	ShowTimestamp     Optional[bool]   `json:"showTimestamp,omitzero"`
	TimestampColor    Optional[string] `json:"timestampColor,omitzero"`
	TimestampFontSize Optional[int]    `json:"timestampFontSize,omitzero"`
	TimestampIsBold   Optional[bool]   `json:"timestampIsBold,omitzero"`

	Padding          Optional[int] `json:"padding,omitzero"`
	ContainerPadding Optional[int] `json:"containerPadding,omitzero"`
	Margin           Optional[int] `json:"margin,omitzero"`
	BgOpacity        Optional[int] `json:"bgOpacity,omitzero"`

	BorderRadiusTL Optional[int] `json:"borderRadiusTL,omitzero"`
	BorderRadiusTR Optional[int] `json:"borderRadiusTR,omitzero"`
	BorderRadiusBL Optional[int] `json:"borderRadiusBL,omitzero"`
	BorderRadiusBR Optional[int] `json:"borderRadiusBR,omitzero"`

	MsgBgMode        Optional[BackgroundMode]    `json:"msgBgMode,omitzero"`
	MsgBgCycleColors Optional[[]string]          `json:"msgBgCycleColors,omitzero"`
	MsgBgCycleCount  Optional[int]               `json:"msgBgCycleCount,omitzero"`
	MsgBgRoleColors  Optional[map[string]string] `json:"msgBgRoleColors,omitzero"`

	TextOutlineEnabled Optional[bool]   `json:"textOutlineEnabled,omitzero"`
	TextOutlineColor   Optional[string] `json:"textOutlineColor,omitzero"`

	ShowBadges  Optional[bool]                  `json:"showBadges,omitzero"`
	BadgeStyles Optional[map[string]BadgeStyle] `json:"badgeStyles,omitzero"`

	IgnoredUsers    Optional[[]string] `json:"ignoredUsers,omitzero"`
	AutoHideSeconds Optional[int]      `json:"autoHideSeconds,omitzero"`
	AnimationEntry  Optional[string]   `json:"animationEntry,omitzero"`
	AnimationExit   Optional[string]   `json:"animationExit,omitzero"`

	BorderEnabled   Optional[bool]        `json:"borderEnabled,omitzero"`
	BorderThickness Optional[int]         `json:"borderThickness,omitzero"`
	BorderColor     Optional[string]      `json:"borderColor,omitzero"`
	BorderSides     Optional[BorderSides] `json:"borderSides,omitzero"`

	ShadowEnabled Optional[bool]   `json:"shadowEnabled,omitzero"`
	ShadowColor   Optional[string] `json:"shadowColor,omitzero"`
	ShadowOpacity Optional[int]    `json:"shadowOpacity,omitzero"`
	ShadowBlur    Optional[int]    `json:"shadowBlur,omitzero"`
	ShadowOffsetX Optional[int]    `json:"shadowOffsetX,omitzero"`
	ShadowOffsetY Optional[int]    `json:"shadowOffsetY,omitzero"`
}

// IsEmpty reports whether no field of s is present
func (s Snapshot) IsEmpty() bool {
	return reflect.ValueOf(s).IsZero()
}

// SnapshotOf returns a Snapshot in which every field of c is present
func SnapshotOf(c Config) Snapshot {
	return Snapshot{
		FontFamily:            Some(c.FontFamily),
		FontSize:              Some(c.FontSize),
		IsBold:                Some(c.IsBold),
		TextColor:             Some(c.TextColor),
		BackgroundColor:       Some(c.BackgroundColor),
		BackgroundImage:       Some(c.BackgroundImage),
		AccentColor:           Some(c.AccentColor),
		UseUserColorForAccent: Some(c.UseUserColorForAccent),
		UseUserColorForName:   Some(c.UseUserColorForName),
		BorderRadius:          Some(c.BorderRadius),
		Width:                 Some(c.Width),
		Height:                Some(c.Height),
		Position:              Some(c.Position),
		Direction:             Some(c.Direction),
		MaxMessages:           Some(c.MaxMessages),
		ShowTimestamp:         Some(c.ShowTimestamp),
		TimestampColor:        Some(c.TimestampColor),
		TimestampFontSize:     Some(c.TimestampFontSize),
		TimestampIsBold:       Some(c.TimestampIsBold),
		Padding:               Some(c.Padding),
		ContainerPadding:      Some(c.ContainerPadding),
		Margin:                Some(c.Margin),
		BgOpacity:             Some(c.BgOpacity),
		BorderRadiusTL:        Some(c.BorderRadiusTL),
		BorderRadiusTR:        Some(c.BorderRadiusTR),
		BorderRadiusBL:        Some(c.BorderRadiusBL),
		BorderRadiusBR:        Some(c.BorderRadiusBR),
		MsgBgMode:             Some(c.MsgBgMode),
		MsgBgCycleColors:      Some(c.MsgBgCycleColors),
		MsgBgCycleCount:       Some(c.MsgBgCycleCount),
		MsgBgRoleColors:       Some(c.MsgBgRoleColors),
		TextOutlineEnabled:    Some(c.TextOutlineEnabled),
		TextOutlineColor:      Some(c.TextOutlineColor),
		ShowBadges:            Some(c.ShowBadges),
		BadgeStyles:           Some(c.BadgeStyles),
		IgnoredUsers:          Some(c.IgnoredUsers),
		AutoHideSeconds:       Some(c.AutoHideSeconds),
		AnimationEntry:        Some(c.AnimationEntry),
		AnimationExit:         Some(c.AnimationExit),
		BorderEnabled:         Some(c.BorderEnabled),
		BorderThickness:       Some(c.BorderThickness),
		BorderColor:           Some(c.BorderColor),
		BorderSides:           Some(c.BorderSides),
		ShadowEnabled:         Some(c.ShadowEnabled),
		ShadowColor:           Some(c.ShadowColor),
		ShadowOpacity:         Some(c.ShadowOpacity),
		ShadowBlur:            Some(c.ShadowBlur),
		ShadowOffsetX:         Some(c.ShadowOffsetX),
		ShadowOffsetY:         Some(c.ShadowOffsetY),
	}
}

// applyTo writes every present field of s over c. The nested role-color and
// badge-style maps are merged key by key rather than replaced.
func (s Snapshot) applyTo(c *Config) {
	s.FontFamily.apply(&c.FontFamily)
	s.FontSize.apply(&c.FontSize)
	s.IsBold.apply(&c.IsBold)
	s.TextColor.apply(&c.TextColor)
	s.BackgroundColor.apply(&c.BackgroundColor)
	s.BackgroundImage.apply(&c.BackgroundImage)
	s.AccentColor.apply(&c.AccentColor)
	s.UseUserColorForAccent.apply(&c.UseUserColorForAccent)
	s.UseUserColorForName.apply(&c.UseUserColorForName)
	s.BorderRadius.apply(&c.BorderRadius)
	s.Width.apply(&c.Width)
	s.Height.apply(&c.Height)
	s.Position.apply(&c.Position)
	s.Direction.apply(&c.Direction)
	s.MaxMessages.apply(&c.MaxMessages)
	s.ShowTimestamp.apply(&c.ShowTimestamp)
	s.TimestampColor.apply(&c.TimestampColor)
	s.TimestampFontSize.apply(&c.TimestampFontSize)
	s.TimestampIsBold.apply(&c.TimestampIsBold)
	s.Padding.apply(&c.Padding)
	s.ContainerPadding.apply(&c.ContainerPadding)
	s.Margin.apply(&c.Margin)
	s.BgOpacity.apply(&c.BgOpacity)
	s.BorderRadiusTL.apply(&c.BorderRadiusTL)
	s.BorderRadiusTR.apply(&c.BorderRadiusTR)
	s.BorderRadiusBL.apply(&c.BorderRadiusBL)
	s.BorderRadiusBR.apply(&c.BorderRadiusBR)
	s.MsgBgMode.apply(&c.MsgBgMode)
	s.MsgBgCycleColors.apply(&c.MsgBgCycleColors)
	s.MsgBgCycleCount.apply(&c.MsgBgCycleCount)
	s.TextOutlineEnabled.apply(&c.TextOutlineEnabled)
	s.TextOutlineColor.apply(&c.TextOutlineColor)
	s.ShowBadges.apply(&c.ShowBadges)
	s.IgnoredUsers.apply(&c.IgnoredUsers)
	s.AutoHideSeconds.apply(&c.AutoHideSeconds)
	s.AnimationEntry.apply(&c.AnimationEntry)
	s.AnimationExit.apply(&c.AnimationExit)
	s.BorderEnabled.apply(&c.BorderEnabled)
	s.BorderThickness.apply(&c.BorderThickness)
	s.BorderColor.apply(&c.BorderColor)
	s.BorderSides.apply(&c.BorderSides)
	s.ShadowEnabled.apply(&c.ShadowEnabled)
	s.ShadowColor.apply(&c.ShadowColor)
	s.ShadowOpacity.apply(&c.ShadowOpacity)
	s.ShadowBlur.apply(&c.ShadowBlur)
	s.ShadowOffsetX.apply(&c.ShadowOffsetX)
	s.ShadowOffsetY.apply(&c.ShadowOffsetY)

	if roleColors, ok := s.MsgBgRoleColors.Get(); ok {
		for role, color := range roleColors {
			c.MsgBgRoleColors[role] = color
		}
	}
	if badgeStyles, ok := s.BadgeStyles.Get(); ok {
		for set, badgeStyle := range badgeStyles {
			c.BadgeStyles[set] = badgeStyle
		}
	}
}
