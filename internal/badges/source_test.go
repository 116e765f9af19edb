package badges

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/nicklaw5/helix/v2"
	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/overlay/internal/logging"
	"github.com/golden-vcr/overlay/internal/twitch"
)

func Test_Source(t *testing.T) {
	t.Run("global and channel badges are merged and cached", func(t *testing.T) {
		client := &mockBadgeReader{
			global: []helix.ChatBadge{
				{SetID: "subscriber", Versions: []helix.BadgeVersion{{ID: "0", ImageUrl1x: "global-sub-0"}}},
				{SetID: "vip", Versions: []helix.BadgeVersion{{ID: "1", ImageUrl1x: "global-vip-1"}}},
			},
			channel: []helix.ChatBadge{
				{SetID: "subscriber", Versions: []helix.BadgeVersion{{ID: "0", ImageUrl1x: "channel-sub-0"}}},
			},
		}
		s := NewSource(client, time.Minute, logging.Discard(), nil)

		c, err := s.Catalog("SomeChannel")
		assert.NoError(t, err)
		assert.Equal(t, Catalog{
			"subscriber": {"0": "channel-sub-0"},
			"vip":        {"1": "global-vip-1"},
		}, c)
		assert.Equal(t, "1234", client.gotBroadcasterId)
		assert.Equal(t, 1, client.numGlobalCalls)

		_, err = s.Catalog("somechannel")
		assert.NoError(t, err)
		assert.Equal(t, 1, client.numGlobalCalls)

		s.Invalidate("somechannel")
		_, err = s.Catalog("somechannel")
		assert.NoError(t, err)
		assert.Equal(t, 2, client.numGlobalCalls)
	})
	t.Run("failed channel fetch yields a partial catalog that is not cached", func(t *testing.T) {
		client := &mockBadgeReader{
			global: []helix.ChatBadge{
				{SetID: "vip", Versions: []helix.BadgeVersion{{ID: "1", ImageUrl1x: "global-vip-1"}}},
			},
			channelErr: fmt.Errorf("mock error"),
		}
		s := NewSource(client, time.Minute, logging.Discard(), nil)

		c, err := s.Catalog("somechannel")
		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.ErrorContains(t, err, "mock error")
		assert.Equal(t, Catalog{"vip": {"1": "global-vip-1"}}, c)

		_, _ = s.Catalog("somechannel")
		assert.Equal(t, 2, client.numGlobalCalls)
	})
	t.Run("failed user lookup yields a partial catalog", func(t *testing.T) {
		client := &mockBadgeReader{noUser: true}
		s := NewSource(client, time.Minute, logging.Discard(), nil)

		c, err := s.Catalog("nobody")
		assert.ErrorIs(t, err, twitch.ErrUserNotFound)
		assert.Equal(t, Catalog{}, c)
	})
	t.Run("non-200 global response is reported", func(t *testing.T) {
		client := &mockBadgeReader{globalStatus: http.StatusInternalServerError}
		s := NewSource(client, time.Minute, logging.Discard(), nil)

		_, err := s.Catalog("somechannel")
		assert.ErrorContains(t, err, "got response 500")
	})
}

type mockBadgeReader struct {
	global       []helix.ChatBadge
	globalStatus int
	channel      []helix.ChatBadge
	channelErr   error
	noUser       bool

	numGlobalCalls   int
	gotBroadcasterId string
}

func (m *mockBadgeReader) GetUsers(params *helix.UsersParams) (*helix.UsersResponse, error) {
	r := &helix.UsersResponse{}
	r.StatusCode = http.StatusOK
	if !m.noUser {
		r.Data.Users = []helix.User{{ID: "1234", Login: params.Logins[0]}}
	}
	return r, nil
}

func (m *mockBadgeReader) GetGlobalChatBadges() (*helix.GetChatBadgeResponse, error) {
	m.numGlobalCalls++
	r := &helix.GetChatBadgeResponse{}
	r.StatusCode = http.StatusOK
	if m.globalStatus != 0 {
		r.StatusCode = m.globalStatus
	}
	r.Data.Badges = m.global
	return r, nil
}

func (m *mockBadgeReader) GetChannelChatBadges(params *helix.GetChatBadgeParams) (*helix.GetChatBadgeResponse, error) {
	m.gotBroadcasterId = params.BroadcasterID
	if m.channelErr != nil {
		return nil, m.channelErr
	}
	r := &helix.GetChatBadgeResponse{}
	r.StatusCode = http.StatusOK
	r.Data.Badges = m.channel
	return r, nil
}

var _ twitch.BadgeReader = (*mockBadgeReader)(nil)
