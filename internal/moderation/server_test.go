package moderation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/overlay/internal/auth"
	"github.com/golden-vcr/overlay/internal/logging"
)

func Test_Server(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantBody   string
		wantBans   int
		wantDels   int
	}{
		{
			"delete succeeds with no content",
			"/delete",
			`{"messageId":"msg-1"}`,
			http.StatusNoContent,
			"",
			0,
			1,
		},
		{
			"timeout succeeds with no content",
			"/timeout",
			`{"login":"spammer"}`,
			http.StatusNoContent,
			"",
			1,
			0,
		},
		{
			"ban of unknown user is 404",
			"/ban",
			`{"login":"nobody"}`,
			http.StatusNotFound,
			"user not found: nobody",
			0,
			0,
		},
		{
			"missing login is 400",
			"/ban",
			`{}`,
			http.StatusBadRequest,
			"missing required argument: login",
			0,
			0,
		},
		{
			"say succeeds with no content",
			"/say",
			`{"message":"hello chat"}`,
			http.StatusNoContent,
			"",
			0,
			0,
		},
		{
			"say without a message is 400",
			"/say",
			`{"message":""}`,
			http.StatusBadRequest,
			"missing required argument: message",
			0,
			0,
		},
		{
			"invalid JSON is 400",
			"/delete",
			`{`,
			http.StatusBadRequest,
			"invalid request body",
			0,
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockModerationClient()
			s := NewServer(NewModerator(&mockClientFactory{client: client}, &mockSender{}, 100, 100, &mockDispatcher{}, logging.Discard(), nil))
			r := mux.NewRouter()
			s.RegisterRoutes(r)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req = req.WithContext(auth.WithAccess(context.Background(), &auth.AccessClaims{Role: auth.RoleBroadcaster}, "broadcaster-token"))
			res := httptest.NewRecorder()
			r.ServeHTTP(res, req)

			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSuffix(res.Body.String(), "\n"))
			assert.Len(t, client.bans, tt.wantBans)
			assert.Len(t, client.deletes, tt.wantDels)
		})
	}
}
