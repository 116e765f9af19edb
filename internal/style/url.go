package style

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	cycleColorParamPrefix = "cycleColor_"
	roleColorParamPrefix  = "roleColor_"
)

// ParseURL reads the overlay's query parameters into a Snapshot. Parameters that are
// missing or empty are left absent; numeric parameters that can't be parsed are
// ignored, and boolean parameters are true only when set to "true". Cycle colors are
// read from cycleColor_0, cycleColor_1, ... until the first gap, and role colors from
// roleColor_<role>.
func ParseURL(q url.Values) Snapshot {
	var s Snapshot
	for key, dst := range s.stringParams() {
		if value := q.Get(key); value != "" {
			*dst = Some(value)
		}
	}
	for key, dst := range s.intParams() {
		if value := q.Get(key); value != "" {
			if n, err := strconv.Atoi(value); err == nil {
				*dst = Some(n)
			}
		}
	}
	for key, dst := range s.boolParams() {
		if value := q.Get(key); value != "" {
			*dst = Some(value == "true")
		}
	}
	if value := q.Get("msgBgMode"); value != "" {
		s.MsgBgMode = Some(BackgroundMode(value))
	}

	cycleColors := make([]string, 0)
	for i := 0; ; i++ {
		value := q.Get(fmt.Sprintf("%s%d", cycleColorParamPrefix, i))
		if value == "" {
			break
		}
		cycleColors = append(cycleColors, value)
	}
	if len(cycleColors) > 0 {
		s.MsgBgCycleColors = Some(cycleColors)
	}

	roleColors := make(map[string]string)
	for _, role := range Roles {
		if value := q.Get(roleColorParamPrefix + role); value != "" {
			roleColors[role] = value
		}
	}
	if len(roleColors) > 0 {
		s.MsgBgRoleColors = Some(roleColors)
	}
	return s
}

// EncodeURL is the inverse of ParseURL: it produces the query parameters that, when
// parsed, reproduce every URL-configurable field of c
func EncodeURL(c Config) url.Values {
	q := url.Values{}
	s := SnapshotOf(c)
	for key, src := range s.stringParams() {
		if value, ok := src.Get(); ok && value != "" {
			q.Set(key, value)
		}
	}
	for key, src := range s.intParams() {
		if value, ok := src.Get(); ok {
			q.Set(key, strconv.Itoa(value))
		}
	}
	for key, src := range s.boolParams() {
		if value, ok := src.Get(); ok {
			q.Set(key, strconv.FormatBool(value))
		}
	}
	if c.MsgBgMode != "" {
		q.Set("msgBgMode", string(c.MsgBgMode))
	}
	for i, color := range c.MsgBgCycleColors {
		if color == "" {
			break
		}
		q.Set(fmt.Sprintf("%s%d", cycleColorParamPrefix, i), color)
	}
	for _, role := range Roles {
		if color := c.MsgBgRoleColors[role]; color != "" {
			q.Set(roleColorParamPrefix+role, color)
		}
	}
	return q
}

func (s *Snapshot) stringParams() map[string]*Optional[string] {
	return map[string]*Optional[string]{
		"fontFamily":       &s.FontFamily,
		"textColor":        &s.TextColor,
		"backgroundColor":  &s.BackgroundColor,
		"backgroundImage":  &s.BackgroundImage,
		"accentColor":      &s.AccentColor,
		"position":         &s.Position,
		"direction":        &s.Direction,
		"animationEntry":   &s.AnimationEntry,
		"animationExit":    &s.AnimationExit,
		"timestampColor":   &s.TimestampColor,
		"textOutlineColor": &s.TextOutlineColor,
	}
}

func (s *Snapshot) intParams() map[string]*Optional[int] {
	return map[string]*Optional[int]{
		"fontSize":          &s.FontSize,
		"borderRadius":      &s.BorderRadius,
		"width":             &s.Width,
		"height":            &s.Height,
		"autoHideSeconds":   &s.AutoHideSeconds,
		"maxMessages":       &s.MaxMessages,
		"timestampFontSize": &s.TimestampFontSize,
		"padding":           &s.Padding,
		"containerPadding":  &s.ContainerPadding,
		"margin":            &s.Margin,
		"bgOpacity":         &s.BgOpacity,
		"borderRadiusTL":    &s.BorderRadiusTL,
		"borderRadiusTR":    &s.BorderRadiusTR,
		"borderRadiusBL":    &s.BorderRadiusBL,
		"borderRadiusBR":    &s.BorderRadiusBR,
		"msgBgCycleCount":   &s.MsgBgCycleCount,
	}
}

func (s *Snapshot) boolParams() map[string]*Optional[bool] {
	return map[string]*Optional[bool]{
		"isBold":                &s.IsBold,
		"useUserColorForAccent": &s.UseUserColorForAccent,
		"useUserColorForName":   &s.UseUserColorForName,
		"showTimestamp":         &s.ShowTimestamp,
		"timestampIsBold":       &s.TimestampIsBold,
		"textOutlineEnabled":    &s.TextOutlineEnabled,
	}
}
