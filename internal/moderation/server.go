package moderation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/golden-vcr/overlay/internal/auth"
	"github.com/golden-vcr/overlay/internal/twitch"
)

// Server exposes moderation actions over HTTP. Its routes are expected to be mounted
// behind auth.Server.RequireBroadcaster, which supplies the caller's access token.
type Server struct {
	moderator *Moderator
}

func NewServer(moderator *Moderator) *Server {
	return &Server{moderator: moderator}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/delete").Methods("POST").HandlerFunc(s.handleDelete)
	r.Path("/timeout").Methods("POST").HandlerFunc(s.handleTimeout)
	r.Path("/ban").Methods("POST").HandlerFunc(s.handleBan)
	r.Path("/say").Methods("POST").HandlerFunc(s.handleSay)
}

type deleteRequest struct {
	MessageId string `json:"messageId"`
}

type userRequest struct {
	Login string `json:"login"`
}

type sayRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleDelete(res http.ResponseWriter, req *http.Request) {
	var payload deleteRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(res, "invalid request body", http.StatusBadRequest)
		return
	}
	err := s.moderator.DeleteMessage(req.Context(), auth.GetAccessToken(req.Context()), payload.MessageId)
	writeResult(res, err)
}

func (s *Server) handleTimeout(res http.ResponseWriter, req *http.Request) {
	var payload userRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(res, "invalid request body", http.StatusBadRequest)
		return
	}
	err := s.moderator.Timeout(req.Context(), auth.GetAccessToken(req.Context()), payload.Login)
	writeResult(res, err)
}

func (s *Server) handleBan(res http.ResponseWriter, req *http.Request) {
	var payload userRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(res, "invalid request body", http.StatusBadRequest)
		return
	}
	err := s.moderator.Ban(req.Context(), auth.GetAccessToken(req.Context()), payload.Login)
	writeResult(res, err)
}

func (s *Server) handleSay(res http.ResponseWriter, req *http.Request) {
	var payload sayRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(res, "invalid request body", http.StatusBadRequest)
		return
	}
	err := s.moderator.Say(req.Context(), auth.GetAccessToken(req.Context()), payload.Message)
	writeResult(res, err)
}

func writeResult(res http.ResponseWriter, err error) {
	switch {
	case err == nil:
		res.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrMissingArgument), errors.Is(err, ErrInvalidArgument):
		http.Error(res, err.Error(), http.StatusBadRequest)
	case errors.Is(err, twitch.ErrUnauthorized):
		http.Error(res, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, twitch.ErrUserNotFound):
		http.Error(res, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrRateLimited):
		http.Error(res, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, ErrNotPermitted):
		http.Error(res, err.Error(), http.StatusForbidden)
	default:
		http.Error(res, err.Error(), http.StatusBadGateway)
	}
}
