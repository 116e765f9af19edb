package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golden-vcr/overlay/internal/metrics"
)

// KeepaliveInterval is how long a connection may sit idle before we send a comment
// line to keep proxies from closing it
const KeepaliveInterval = 30 * time.Second

// Handler is an HTTP handler that serves a stream of data using Server-Sent Events
type Handler[T any] struct {
	ctx     context.Context
	b       bus[T]
	logger  *slog.Logger
	metrics *metrics.Metrics

	keepalive time.Duration

	OnConnectEventFunc func() T
}

// NewHandler initializes an SSE handler that will read messages from the given channel
// and fan them out to all extant HTTP connections
func NewHandler[T any](ctx context.Context, ch <-chan T, logger *slog.Logger, m *metrics.Metrics) *Handler[T] {
	h := &Handler[T]{
		ctx: ctx,
		b: bus[T]{
			chs:    make(map[chan T]struct{}),
			onDrop: m.IncSSEDrops,
		},
		logger:    logger,
		metrics:   m,
		keepalive: KeepaliveInterval,
	}
	go func() {
		done := false
		for !done {
			select {
			case <-ctx.Done():
				done = true
				h.b.clear()
			case message := <-ch:
				h.b.publish(message)
			}
		}
	}()
	return h
}

// NumClients returns the number of currently-connected clients
func (h *Handler[T]) NumClients() int {
	return h.b.size()
}

// ServeHTTP responds by opening a long-lived HTTP connection to which events will be
// written as the handler receives them, formatted as text/event-stream messages with
// 'data' consisting of a JSON-encoded message payload
func (h *Handler[T]) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	// If a content-type is explicitly requested, require that it's text/event-stream
	accept := req.Header.Get("accept")
	if accept != "" && accept != "*/*" && !strings.HasPrefix(accept, "text/event-stream") {
		message := fmt.Sprintf("content-type %s is not supported", accept)
		http.Error(res, message, http.StatusBadRequest)
		return
	}
	flusher, ok := res.(http.Flusher)
	if !ok {
		http.Error(res, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	// Keep the connection alive and open a text/event-stream response body
	res.Header().Set("content-type", "text/event-stream")
	res.Header().Set("cache-control", "no-cache")
	res.Header().Set("connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Register before resolving the initial value, so that nothing published in the
	// meantime is missed
	ch := make(chan T, 32)
	h.b.register(ch)
	defer h.b.unregister(ch)
	h.metrics.IncSSEClients(1)
	defer h.metrics.IncSSEClients(-1)

	// If configured to send an initial value immediately upon connect, resolve that
	// value and send it: otherwise send an initial keepalive message to ensure that
	// Cloudflare will kick into action immediately without requiring special
	// configuration rules
	if h.OnConnectEventFunc != nil {
		h.write(res, flusher, h.OnConnectEventFunc())
	} else {
		res.Write([]byte(":\n\n"))
		flusher.Flush()
	}

	// Send all incoming messages to the client for as long as the connection is open
	logger := h.logger.With("remoteAddr", req.RemoteAddr)
	logger.Info("opened SSE connection")
	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-keepalive.C:
			res.Write([]byte(":\n\n"))
			flusher.Flush()
		case message := <-ch:
			h.write(res, flusher, message)
		case <-h.ctx.Done():
			logger.Info("server is shutting down; abandoning SSE connection")
			return
		case <-req.Context().Done():
			logger.Info("SSE connection closed")
			return
		}
	}
}

func (h *Handler[T]) write(res http.ResponseWriter, flusher http.Flusher, message T) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to serialize SSE message as JSON", "error", err)
		return
	}
	fmt.Fprintf(res, "data: %s\n\n", data)
	flusher.Flush()
}
