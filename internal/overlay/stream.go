package overlay

import (
	"context"
	"net/http"
	"time"

	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/sse"
	"github.com/golden-vcr/overlay/internal/style"
	"github.com/golden-vcr/overlay/internal/visibility"
)

// streamClient is an overlay connected to /stream with style parameters in its URL.
// It gets its own visibility engine, since parameters like maxMessages, ignoredUsers
// and autoHideSeconds change which messages it shows. Fields other than engine and
// frames are guarded by the server's state lock.
type streamClient struct {
	url    style.Snapshot
	config style.Config
	view   visibility.View
	frame  Frame
	frames chan Frame
	engine *visibility.Engine
}

// subscription is a MessageSource backed by the shared message buffer, with its own
// change notifications
type subscription struct {
	buffer  MessageBuffer
	changes <-chan struct{}
}

func (s subscription) Snapshot() []chat.Message {
	return s.buffer.Snapshot()
}

func (s subscription) Changes() <-chan struct{} {
	return s.changes
}

var _ visibility.MessageSource = subscription{}

// handleStream serves the stream of rendered frames. A request with no style
// parameters shares the overlay's own stream; otherwise the parameters are layered
// between the defaults and the saved styles, just as GET /styles resolves them, and
// the client gets a stream rendered for that configuration.
func (s *Server) handleStream(res http.ResponseWriter, req *http.Request) {
	url := style.ParseURL(req.URL.Query())
	if url.IsEmpty() {
		s.stream.ServeHTTP(res, req)
		return
	}

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	c, release := s.addStreamClient(url)
	defer release()
	go c.engine.Run(ctx)

	stream := sse.NewHandler[Frame](ctx, c.frames, s.logger, s.metrics)
	stream.OnConnectEventFunc = func() Frame {
		s.state.mu.RLock()
		defer s.state.mu.RUnlock()
		return c.frame
	}
	stream.ServeHTTP(res, req.WithContext(ctx))
}

// addStreamClient registers a client whose style parameters are given by url, with
// its initial frame already rendered. The returned func unregisters it.
func (s *Server) addStreamClient(url style.Snapshot) (*streamClient, func()) {
	changes, unsubscribe := s.buffer.Subscribe()
	c := &streamClient{
		url:    url,
		frames: make(chan Frame, 1),
	}

	s.state.mu.Lock()
	c.config = style.Merge(style.Defaults(), url, s.state.local)
	policy := policyOf(c.config)
	c.view = visibility.View{
		Messages:    visibility.ComputeVisible(s.buffer.Snapshot(), policy, time.Now()),
		EvaluatedAt: time.Now(),
	}
	c.frame = s.render(c.view, c.config)
	c.engine = visibility.NewEngine(
		subscription{buffer: s.buffer, changes: changes},
		policy,
		func(view visibility.View) { s.publishTo(c, view) },
		s.logger.With("stream", "custom"),
		nil,
	)
	if s.state.clients == nil {
		s.state.clients = make(map[*streamClient]struct{})
	}
	s.state.clients[c] = struct{}{}
	s.state.mu.Unlock()
	s.resizeBuffer()

	return c, func() {
		s.state.mu.Lock()
		delete(s.state.clients, c)
		s.state.mu.Unlock()
		unsubscribe()
		s.resizeBuffer()
	}
}

// publishTo renders a new view for a single client
func (s *Server) publishTo(c *streamClient, view visibility.View) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	c.view = view
	c.frame = s.render(view, c.config)
	s.send(c.frames, c.frame)
}

// numStreamClients returns the number of clients with their own style parameters
func (s *Server) numStreamClients() int {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return len(s.state.clients)
}
