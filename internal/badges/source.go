package badges

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/nicklaw5/helix/v2"

	"github.com/golden-vcr/overlay/internal/metrics"
	"github.com/golden-vcr/overlay/internal/twitch"
)

var ErrFetchFailed = errors.New("failed to fetch badges")

// Source builds badge catalogs for channels using the Twitch API, caching complete
// catalogs for a limited time
type Source struct {
	client  twitch.BadgeReader
	cache   *otter.Cache[string, Catalog]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSource returns a Source that keeps each channel's catalog for the given TTL
func NewSource(client twitch.BadgeReader, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Source {
	return &Source{
		client: client,
		cache: otter.Must(&otter.Options[string, Catalog]{
			MaximumSize:      64,
			ExpiryCalculator: otter.ExpiryWriting[string, Catalog](ttl),
		}),
		logger:  logger,
		metrics: m,
	}
}

// Catalog returns the merged global and channel badge catalog for the given channel.
// If either request fails, the error is returned along with whatever partial catalog
// could be built; partial catalogs are not cached, so the next call will try again.
func (s *Source) Catalog(channel string) (Catalog, error) {
	key := strings.ToLower(channel)
	if c, ok := s.cache.GetIfPresent(key); ok {
		return c, nil
	}

	var errs []error
	global, err := s.fetchGlobal()
	if err != nil {
		s.metrics.IncBadgeFetchErrors("global")
		errs = append(errs, err)
	}
	channelSets, err := s.fetchChannel(key)
	if err != nil {
		s.metrics.IncBadgeFetchErrors("channel")
		errs = append(errs, err)
	}

	c := Resolve(global, channelSets)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.logger.Warn("badge catalog is incomplete", "channel", key, "error", err)
		return c, err
	}
	s.cache.Set(key, c)
	s.logger.Debug("badge catalog built", "channel", key, "sets", len(c))
	return c, nil
}

// Invalidate discards any cached catalog for the given channel
func (s *Source) Invalidate(channel string) {
	s.cache.Invalidate(strings.ToLower(channel))
}

func (s *Source) fetchGlobal() ([]BadgeSet, error) {
	r, err := s.client.GetGlobalChatBadges()
	if err != nil {
		return nil, fmt.Errorf("%w: global: %w", ErrFetchFailed, err)
	}
	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: global: got response %d: %s", ErrFetchFailed, r.StatusCode, r.ErrorMessage)
	}
	return convertBadgeSets(r.Data.Badges), nil
}

func (s *Source) fetchChannel(channel string) ([]BadgeSet, error) {
	broadcasterId, err := twitch.GetUserIdByLogin(s.client, channel)
	if err != nil {
		return nil, fmt.Errorf("%w: channel %s: %w", ErrFetchFailed, channel, err)
	}
	r, err := s.client.GetChannelChatBadges(&helix.GetChatBadgeParams{
		BroadcasterID: broadcasterId,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: channel %s: %w", ErrFetchFailed, channel, err)
	}
	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: channel %s: got response %d: %s", ErrFetchFailed, channel, r.StatusCode, r.ErrorMessage)
	}
	return convertBadgeSets(r.Data.Badges), nil
}

func convertBadgeSets(sets []helix.ChatBadge) []BadgeSet {
	result := make([]BadgeSet, 0, len(sets))
	for _, set := range sets {
		versions := make([]BadgeVersion, 0, len(set.Versions))
		for _, v := range set.Versions {
			versions = append(versions, BadgeVersion{
				ID:       v.ID,
				ImageURL: v.ImageUrl1x,
			})
		}
		result = append(result, BadgeSet{
			SetID:    set.SetID,
			Versions: versions,
		})
	}
	return result
}
