package badges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		global  []BadgeSet
		channel []BadgeSet
		want    Catalog
	}{
		{
			"channel wins on collision, union otherwise",
			[]BadgeSet{
				{"sub", []BadgeVersion{{"1", "urlA"}}},
			},
			[]BadgeSet{
				{"sub", []BadgeVersion{{"1", "urlB"}}},
				{"vip", []BadgeVersion{{"1", "urlC"}}},
			},
			Catalog{
				"sub": {"1": "urlB"},
				"vip": {"1": "urlC"},
			},
		},
		{
			"nil inputs yield an empty catalog",
			nil,
			nil,
			Catalog{},
		},
		{
			"versions from both sources are combined within a set",
			[]BadgeSet{
				{"subscriber", []BadgeVersion{{"0", "global-0"}, {"3", "global-3"}}},
			},
			[]BadgeSet{
				{"subscriber", []BadgeVersion{{"3", "channel-3"}, {"6", "channel-6"}}},
			},
			Catalog{
				"subscriber": {"0": "global-0", "3": "channel-3", "6": "channel-6"},
			},
		},
		{
			"incomplete entries are skipped",
			[]BadgeSet{
				{"", []BadgeVersion{{"1", "orphan"}}},
				{"moderator", []BadgeVersion{{"1", ""}, {"", "no-id"}, {"2", "ok"}}},
				{"empty", nil},
			},
			nil,
			Catalog{
				"moderator": {"2": "ok"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.global, tt.channel)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Catalog_Lookup(t *testing.T) {
	c := Catalog{"vip": {"1": "url"}}

	url, ok := c.Lookup("vip", "1")
	assert.True(t, ok)
	assert.Equal(t, "url", url)

	_, ok = c.Lookup("vip", "2")
	assert.False(t, ok)

	_, ok = c.Lookup("moderator", "1")
	assert.False(t, ok)

	var empty Catalog
	_, ok = empty.Lookup("vip", "1")
	assert.False(t, ok)
}
