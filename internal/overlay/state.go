// Package overlay serves the chat overlay: the resolved style configuration, the live
// stream of rendered chat lines, and the dashboard's session and style controls.
package overlay

import (
	"context"
	"errors"
	"sync"

	"github.com/golden-vcr/overlay/internal/badges"
	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/store"
	"github.com/golden-vcr/overlay/internal/style"
	"github.com/golden-vcr/overlay/internal/visibility"
)

// Session controls which channel's chat we're connected to
type Session interface {
	Switch(ctx context.Context, channel string) error
	Retry(ctx context.Context) error
	Channel() string
}

var _ Session = (*chat.Supervisor)(nil)

// MessageBuffer is the part of the ingest that the overlay reconfigures and reports
// on. Snapshot and Subscribe feed the visibility engines of overlay clients that
// request their own style parameters.
type MessageBuffer interface {
	Status() chat.ConnectionStatus
	SetMaxMessages(n int)
	Snapshot() []chat.Message
	Subscribe() (<-chan struct{}, func())
}

var _ MessageBuffer = (*chat.Ingest)(nil)

// ViewSource is the visibility engine, which publishes views to the overlay and
// accepts the visibility policy derived from the style configuration
type ViewSource interface {
	SetPolicy(p visibility.Policy)
}

var _ ViewSource = (*visibility.Engine)(nil)

// BadgeSource builds badge catalogs for channels
type BadgeSource interface {
	Catalog(channel string) (badges.Catalog, error)
	Invalidate(channel string)
}

var _ BadgeSource = (*badges.Source)(nil)

// state is everything the overlay derives from the current channel. view is the last
// view published by the engine; redraws re-render it rather than asking the engine,
// so that a redraw can never replace a newer frame with an older one.
type state struct {
	mu       sync.RWMutex
	local    style.Snapshot
	config   style.Config
	catalog  badges.Catalog
	badgeErr error
	view     visibility.View
	frame    Frame
	clients  map[*streamClient]struct{}
}

// policyOf extracts the visibility policy from a style configuration
func policyOf(c style.Config) visibility.Policy {
	return visibility.Policy{
		IgnoredUsers:    c.IgnoredUsers,
		AutoHideSeconds: c.AutoHideSeconds,
		MaxMessages:     c.MaxMessages,
	}
}

// loadSnapshot reads the locally-persisted snapshot for a channel, treating a missing
// snapshot as empty
func (s *Server) loadSnapshot(ctx context.Context, channel string) (style.Snapshot, error) {
	data, err := s.store.Load(ctx, style.StorageKey(channel))
	if errors.Is(err, store.ErrNotFound) {
		return style.Snapshot{}, nil
	}
	if err != nil {
		return style.Snapshot{}, err
	}
	snapshot, skipped, err := style.ParsePersisted(data)
	if err != nil {
		return style.Snapshot{}, err
	}
	if len(skipped) > 0 {
		s.logger.Warn("ignored invalid fields in saved styles", "channel", channel, "fields", skipped)
	}
	return snapshot, nil
}

// ReloadStyles re-reads the current channel's saved snapshot and applies it
func (s *Server) ReloadStyles(ctx context.Context) error {
	channel := s.session.Channel()
	snapshot, err := s.loadSnapshot(ctx, channel)
	if err != nil {
		s.logger.Error("failed to load saved styles", "channel", channel, "error", err)
		return err
	}
	s.applySnapshot(snapshot)
	return nil
}

// OnSnapshotChanged is called when a stored snapshot has been modified outside of
// this server
func (s *Server) OnSnapshotChanged(key string) {
	if key != style.StorageKey(s.session.Channel()) {
		return
	}
	s.logger.Info("saved styles changed externally; reloading", "key", key)
	s.ReloadStyles(s.ctx)
}

// applySnapshot makes the given local snapshot the effective one, reconfiguring the
// message buffer and visibility engines and redrawing the overlay. Engines are
// reconfigured without holding s.state.mu, since they publish while holding their
// own lock.
func (s *Server) applySnapshot(local style.Snapshot) {
	config := style.Merge(style.Defaults(), style.Snapshot{}, local)

	s.state.mu.Lock()
	s.state.local = local
	s.state.config = config
	clients := make([]*streamClient, 0, len(s.state.clients))
	for c := range s.state.clients {
		c.config = style.Merge(style.Defaults(), c.url, local)
		clients = append(clients, c)
	}
	s.state.mu.Unlock()

	s.resizeBuffer()
	s.views.SetPolicy(policyOf(config))
	for _, c := range clients {
		c.engine.SetPolicy(policyOf(c.config))
	}
	s.redraw()
}

// resizeBuffer sizes the message buffer to hold enough messages for the overlay and
// for every connected client with its own message limit
func (s *Server) resizeBuffer() {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	n := s.state.config.MaxMessages
	for c := range s.state.clients {
		n = max(n, c.config.MaxMessages)
	}
	s.buffer.SetMaxMessages(n)
}

// RefreshBadges rebuilds the badge catalog for the current channel. A partial catalog
// is still used; the error is kept for the health check.
func (s *Server) RefreshBadges() {
	channel := s.session.Channel()
	if channel == "" {
		return
	}
	catalog, err := s.badges.Catalog(channel)

	s.state.mu.Lock()
	s.state.catalog = catalog
	s.state.badgeErr = err
	s.state.mu.Unlock()
	s.redraw()
}

// BadgeStatus returns the error from the most recent badge fetch, if any
func (s *Server) BadgeStatus() error {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return s.state.badgeErr
}

// Config returns the effective style configuration
func (s *Server) Config() style.Config {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return style.Normalize(s.state.config)
}

// Publish renders a new view and sends it to every overlay client. It's called by the
// visibility engine whenever the set of visible messages changes.
func (s *Server) Publish(view visibility.View) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.view = view
	s.state.frame = s.render(view, s.state.config)
	s.send(s.frames, s.state.frame)
}

// redraw re-renders the most recently published views, for when the configuration or
// badges change
func (s *Server) redraw() {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.frame = s.render(s.state.view, s.state.config)
	s.send(s.frames, s.state.frame)
	for c := range s.state.clients {
		c.frame = s.render(c.view, c.config)
		s.send(c.frames, c.frame)
	}
}

// render must be called with s.state.mu held
func (s *Server) render(view visibility.View, config style.Config) Frame {
	frame, errs := s.renderer.Render(view, config, s.state.catalog)
	for _, err := range errs {
		s.logger.Debug("emote range ignored", "error", err)
	}
	return frame
}

// send queues a frame for an SSE stream without blocking. If the stream hasn't yet
// picked up the previous frame, that frame is discarded in favor of this one. Must be
// called with s.state.mu held, so that frames are queued in the order they were
// rendered.
func (s *Server) send(frames chan Frame, frame Frame) {
	for {
		select {
		case frames <- frame:
			return
		default:
		}
		select {
		case <-frames:
			s.metrics.IncSSEDrops()
		default:
		}
	}
}

func (s *Server) currentFrame() Frame {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return s.state.frame
}
