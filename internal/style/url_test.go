package style

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseURL(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Snapshot
	}{
		{
			"empty query yields an empty snapshot",
			"",
			Snapshot{},
		},
		{
			"strings, numbers and booleans are parsed",
			"fontFamily=Roboto&fontSize=20&isBold=true&showTimestamp=no",
			Snapshot{
				FontFamily:    Some("Roboto"),
				FontSize:      Some(20),
				IsBold:        Some(true),
				ShowTimestamp: Some(false),
			},
		},
		{
			"unparseable numbers are ignored",
			"fontSize=big&maxMessages=12",
			Snapshot{MaxMessages: Some(12)},
		},
		{
			"cycle colors are read until the first gap",
			"cycleColor_0=%23aaaaaa&cycleColor_1=%23bbbbbb&cycleColor_3=%23dddddd",
			Snapshot{MsgBgCycleColors: Some([]string{"#aaaaaa", "#bbbbbb"})},
		},
		{
			"role colors are collected into a partial map",
			"roleColor_vip=%23123456&msgBgMode=role",
			Snapshot{
				MsgBgMode:       Some(BackgroundModeRole),
				MsgBgRoleColors: Some(map[string]string{"vip": "#123456"}),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			got := ParseURL(q)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_EncodeURL(t *testing.T) {
	c := Defaults()
	c.FontSize = 19
	c.AccentColor = "#00ffff"
	c.MsgBgMode = BackgroundModeCycle
	c.MsgBgCycleColors = []string{"#010101", "#020202"}
	c.MsgBgRoleColors["vip"] = "#030303"
	c.IsBold = true

	got := Merge(Defaults(), ParseURL(EncodeURL(c)), Snapshot{})
	assert.Equal(t, 19, got.FontSize)
	assert.Equal(t, "#00ffff", got.AccentColor)
	assert.Equal(t, BackgroundModeCycle, got.MsgBgMode)
	assert.Equal(t, []string{"#010101", "#020202"}, got.MsgBgCycleColors)
	assert.Equal(t, "#030303", got.MsgBgRoleColors["vip"])
	assert.True(t, got.IsBold)
}

func Test_Snapshot_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"no parameters", "", true},
		{"unrelated parameters only", "channel=somechannel&fontSize=big", true},
		{"a numeric parameter", "maxMessages=5", false},
		{"a boolean parameter set to false", "isBold=false", false},
		{"a cycle color", "cycleColor_0=%23aaaaaa", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ParseURL(q).IsEmpty())
		})
	}
}
