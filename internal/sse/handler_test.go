package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/overlay/internal/logging"
)

func Test_Handler(t *testing.T) {
	t.Run("server responds by opening an SSE connection", func(t *testing.T) {
		h := NewHandler[struct{}](context.Background(), make(<-chan struct{}), logging.Discard(), nil)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		res := newSyncRecorder()
		go h.ServeHTTP(res, req)
		waitForResponseSubstring(t, res, ":")

		assert.Equal(t, http.StatusOK, res.code())
		assert.Equal(t, "text/event-stream", res.header("content-type"))
		assert.Equal(t, "no-cache", res.header("cache-control"))
		assert.Equal(t, "keep-alive", res.header("connection"))
	})
	t.Run("if explict 'accept' is set, it must be 'text/event-stream'", func(t *testing.T) {
		h := NewHandler[struct{}](context.Background(), make(<-chan struct{}), logging.Discard(), nil)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("accept", "application/json")
		res := httptest.NewRecorder()
		h.ServeHTTP(res, req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
	t.Run("initial value is sent on connect", func(t *testing.T) {
		h := NewHandler[coordinate](context.Background(), make(<-chan coordinate), logging.Discard(), nil)
		h.OnConnectEventFunc = func() coordinate { return coordinate{7, 8} }
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		res := newSyncRecorder()
		go h.ServeHTTP(res, req)

		waitForResponseSubstring(t, res, `"x":7`)
		assert.Equal(t, "data: {\"x\":7,\"y\":8}\n\n", res.body())
	})
	t.Run("messages sent to channel are fanned out to all connected clients", func(t *testing.T) {
		coords := make(chan coordinate, 32)
		h := NewHandler[coordinate](context.Background(), coords, logging.Discard(), nil)

		// No subscribers are registered, so this message is just dropped
		coords <- coordinate{100, 1}
		time.Sleep(5 * time.Millisecond)

		ctxA, closeA := context.WithCancel(context.Background())
		ctxB, closeB := context.WithCancel(context.Background())
		defer closeA()
		defer closeB()
		reqA := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxA)
		reqB := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxB)
		resA := newSyncRecorder()
		resB := newSyncRecorder()

		// Connect client A, and while it's connected, emit a new message
		go h.ServeHTTP(resA, reqA)
		waitForResponseSubstring(t, resA, ":")
		blockUntil(t, func() bool { return h.NumClients() == 1 }, time.Second)
		coords <- coordinate{200, 2}
		waitForResponseSubstring(t, resA, `"x":200`)

		// Connect client B, then emit a new message which both clients should receive
		go h.ServeHTTP(resB, reqB)
		waitForResponseSubstring(t, resB, ":")
		blockUntil(t, func() bool { return h.NumClients() == 2 }, time.Second)
		coords <- coordinate{300, 3}
		waitForResponseSubstring(t, resA, `"x":300`)
		waitForResponseSubstring(t, resB, `"x":300`)

		// Disconnect client A, then emit a final message
		closeA()
		blockUntil(t, func() bool { return h.NumClients() == 1 }, time.Second)
		coords <- coordinate{400, 4}
		waitForResponseSubstring(t, resB, `"x":400`)

		assert.Equal(t, ":\n\ndata: {\"x\":200,\"y\":2}\n\ndata: {\"x\":300,\"y\":3}\n\n", resA.body())
		assert.Equal(t, ":\n\ndata: {\"x\":300,\"y\":3}\n\ndata: {\"x\":400,\"y\":4}\n\n", resB.body())
	})
	t.Run("connections are closed when the handler's context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		coords := make(chan coordinate, 32)
		h := NewHandler[coordinate](ctx, coords, logging.Discard(), nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		res := newSyncRecorder()
		done := make(chan struct{})
		go func() {
			h.ServeHTTP(res, req)
			close(done)
		}()
		waitForResponseSubstring(t, res, ":")
		blockUntil(t, func() bool { return h.NumClients() == 1 }, time.Second)
		coords <- coordinate{222, 0}
		waitForResponseSubstring(t, res, `"x":222`)

		cancel()
		<-done
		assert.Equal(t, 0, h.NumClients())
		assert.Equal(t, ":\n\ndata: {\"x\":222,\"y\":0}\n\n", res.body())
	})
	t.Run("idle connections get keepalive comments", func(t *testing.T) {
		h := NewHandler[coordinate](context.Background(), make(<-chan coordinate), logging.Discard(), nil)
		h.keepalive = 5 * time.Millisecond
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		res := newSyncRecorder()
		go h.ServeHTTP(res, req)

		waitForResponseSubstring(t, res, ":\n\n:\n\n")
	})
}

type coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// syncRecorder wraps an httptest.ResponseRecorder so that the test can read the
// response while the handler is still writing it
type syncRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{rec: httptest.NewRecorder()}
}

func (r *syncRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Header()
}

func (r *syncRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Write(b)
}

func (r *syncRecorder) WriteHeader(statusCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.WriteHeader(statusCode)
}

func (r *syncRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.Flush()
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Body.String()
}

func (r *syncRecorder) code() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Code
}

func (r *syncRecorder) header(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Result().Header.Get(key)
}

func waitForResponseSubstring(t *testing.T, res *syncRecorder, s string) {
	bodyContainsSubstring := func() bool {
		return strings.Contains(res.body(), s)
	}
	blockUntil(t, bodyContainsSubstring, time.Second)
}

func blockUntil(t *testing.T, cond func() bool, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for condition")
		case <-time.After(100 * time.Microsecond):
			if cond() {
				return
			}
		}
	}
}
