package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/metrics"
	"github.com/golden-vcr/overlay/internal/sse"
	"github.com/golden-vcr/overlay/internal/store"
	"github.com/golden-vcr/overlay/internal/style"
	"github.com/golden-vcr/overlay/internal/visibility"
)

// maxImportSize caps the size of a style configuration file accepted by the import
// and save endpoints
const maxImportSize = 1 << 20

type Server struct {
	ctx                context.Context
	session            Session
	buffer             MessageBuffer
	views              ViewSource
	badges             BadgeSource
	store              store.Store
	renderer           *Renderer
	requireBroadcaster mux.MiddlewareFunc
	logger             *slog.Logger
	metrics            *metrics.Metrics

	state  state
	frames chan Frame
	stream *sse.Handler[Frame]
}

// NewServer returns a Server for the given components. Routes that change settings are
// wrapped in requireBroadcaster. Call ReloadStyles and RefreshBadges once a session is
// established.
func NewServer(ctx context.Context, session Session, buffer MessageBuffer, views ViewSource, badgeSource BadgeSource, snapshots store.Store, renderer *Renderer, requireBroadcaster mux.MiddlewareFunc, logger *slog.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		ctx:                ctx,
		session:            session,
		buffer:             buffer,
		views:              views,
		badges:             badgeSource,
		store:              snapshots,
		renderer:           renderer,
		requireBroadcaster: requireBroadcaster,
		logger:             logger,
		metrics:            m,
		frames:             make(chan Frame, 1),
	}
	s.state.config = style.Defaults()
	s.state.view = visibility.View{Messages: []chat.Message{}}
	s.state.frame = Frame{Style: s.state.config, Lines: []Line{}}
	s.state.clients = make(map[*streamClient]struct{})
	s.stream = sse.NewHandler[Frame](ctx, s.frames, logger, m)
	s.stream.OnConnectEventFunc = s.currentFrame
	return s
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	// Public endpoints, used by the overlay itself
	r.Path("/styles").Methods("GET").HandlerFunc(s.handleGetStyles)
	r.Path("/stream").Methods("GET").HandlerFunc(s.handleStream)
	r.Path("/badges").Methods("GET").HandlerFunc(s.handleGetBadges)
	r.Path("/session").Methods("GET").HandlerFunc(s.handleGetSession)

	// Dashboard endpoints, which require the broadcaster's access token
	protected := r.NewRoute().Subrouter()
	protected.Use(s.requireBroadcaster)
	protected.Path("/styles").Methods("PUT").HandlerFunc(s.handlePutStyles)
	protected.Path("/styles").Methods("DELETE").HandlerFunc(s.handleDeleteStyles)
	protected.Path("/styles/import").Methods("POST").HandlerFunc(s.handleImportStyles)
	protected.Path("/session").Methods("POST").HandlerFunc(s.handleSwitchSession)
	protected.Path("/session/retry").Methods("POST").HandlerFunc(s.handleRetrySession)
}

// SessionState describes the current chat session
type SessionState struct {
	Channel    string                `json:"channel"`
	Connection chat.ConnectionStatus `json:"connection"`
}

type switchSessionRequest struct {
	Channel string `json:"channel"`
}

// handleGetStyles responds with the effective configuration, with any style
// parameters in the query string applied over the defaults but beneath the saved
// snapshot, just as the overlay page resolves them
func (s *Server) handleGetStyles(res http.ResponseWriter, req *http.Request) {
	s.state.mu.RLock()
	local := s.state.local
	s.state.mu.RUnlock()

	config := style.Merge(style.Defaults(), style.ParseURL(req.URL.Query()), local)
	writeJSON(res, config)
}

// handlePutStyles saves the dashboard's current settings. Fields with invalid values
// are dropped rather than rejecting the whole request.
func (s *Server) handlePutStyles(res http.ResponseWriter, req *http.Request) {
	data, err := io.ReadAll(io.LimitReader(req.Body, maxImportSize))
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	snapshot, skipped, err := style.ParsePersisted(data)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	if len(skipped) > 0 {
		s.logger.Warn("ignored invalid fields in submitted styles", "fields", skipped)
	}
	if err := s.saveSnapshot(req.Context(), snapshot); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, s.Config())
}

// handleImportStyles replaces the saved settings with an uploaded configuration file,
// which is applied only if it's a complete, valid configuration
func (s *Server) handleImportStyles(res http.ResponseWriter, req *http.Request) {
	data, err := io.ReadAll(io.LimitReader(req.Body, maxImportSize))
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	snapshot, err := style.ParseImport(data)
	if err != nil {
		s.logger.Info("rejected style import", "error", err)
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.saveSnapshot(req.Context(), snapshot); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, s.Config())
}

// handleDeleteStyles discards the saved settings, reverting to the defaults
func (s *Server) handleDeleteStyles(res http.ResponseWriter, req *http.Request) {
	channel := s.session.Channel()
	if err := s.store.Delete(req.Context(), style.StorageKey(channel)); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	s.applySnapshot(style.Snapshot{})
	writeJSON(res, s.Config())
}

func (s *Server) saveSnapshot(ctx context.Context, snapshot style.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	channel := s.session.Channel()
	if err := s.store.Save(ctx, style.StorageKey(channel), data); err != nil {
		s.logger.Error("failed to save styles", "channel", channel, "error", err)
		return err
	}
	s.applySnapshot(snapshot)
	return nil
}

func (s *Server) handleGetBadges(res http.ResponseWriter, req *http.Request) {
	s.state.mu.RLock()
	catalog := s.state.catalog
	s.state.mu.RUnlock()
	if catalog == nil {
		catalog = make(map[string]map[string]string)
	}
	writeJSON(res, catalog)
}

func (s *Server) handleGetSession(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, s.sessionState())
}

// handleSwitchSession connects to a different channel. The buffer is cleared once the
// new connection is up, and the new channel's badges and saved styles are loaded.
func (s *Server) handleSwitchSession(res http.ResponseWriter, req *http.Request) {
	var payload switchSessionRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(res, "invalid request body", http.StatusBadRequest)
		return
	}
	err := s.SwitchChannel(s.ctx, payload.Channel)
	s.writeSessionResult(res, err)
}

// handleRetrySession makes a new connection attempt to the current channel, keeping
// buffered messages
func (s *Server) handleRetrySession(res http.ResponseWriter, req *http.Request) {
	err := s.session.Retry(s.ctx)
	s.writeSessionResult(res, err)
}

// SwitchChannel moves the overlay to a different channel
func (s *Server) SwitchChannel(ctx context.Context, channel string) error {
	previous := s.session.Channel()
	err := s.session.Switch(ctx, channel)
	if errors.Is(err, chat.ErrNoChannel) {
		return err
	}
	if current := s.session.Channel(); current != previous {
		s.badges.Invalidate(current)
		s.ReloadStyles(ctx)
		s.RefreshBadges()
	}
	return err
}

// writeSessionResult reports the outcome of a connection attempt. The connection
// status is taken from the attempt itself: the ingest applies state changes
// asynchronously, so its status may not have caught up yet.
func (s *Server) writeSessionResult(res http.ResponseWriter, err error) {
	if errors.Is(err, chat.ErrNoChannel) {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	channel := s.session.Channel()
	result := SessionState{
		Channel:    channel,
		Connection: chat.ConnectionStatus{State: chat.ConnectionStateConnected, Channel: channel},
	}
	if err != nil {
		// The failure is reported in the connection status; the session remains
		// selected so that it can be retried
		s.logger.Warn("chat connection attempt failed", "error", err)
		result.Connection.State = chat.ConnectionStateFailed
		result.Connection.Error = err.Error()
		res.Header().Set("content-type", "application/json")
		res.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(res).Encode(result)
		return
	}
	writeJSON(res, result)
}

func (s *Server) sessionState() SessionState {
	return SessionState{
		Channel:    s.session.Channel(),
		Connection: s.buffer.Status(),
	}
}

func writeJSON(res http.ResponseWriter, v any) {
	res.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(res).Encode(v); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}
