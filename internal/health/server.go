package health

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type GetChatStatusFunc func() error
type GetStoreStatusFunc func() error
type GetBadgeStatusFunc func() error

// Status is the readiness report served to the dashboard
type Status struct {
	IsReady bool   `json:"isReady"`
	Message string `json:"message"`
}

type Server struct {
	getChatStatus  GetChatStatusFunc
	getStoreStatus GetStoreStatusFunc
	getBadgeStatus GetBadgeStatusFunc
}

func NewServer(getChatStatus GetChatStatusFunc, getStoreStatus GetStoreStatusFunc, getBadgeStatus GetBadgeStatusFunc) *Server {
	noop := func() error { return nil }
	if getStoreStatus == nil {
		getStoreStatus = noop
	}
	if getBadgeStatus == nil {
		getBadgeStatus = noop
	}
	return &Server{
		getChatStatus:  getChatStatus,
		getStoreStatus: getStoreStatus,
		getBadgeStatus: getBadgeStatus,
	}
}

func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	status := s.resolveStatus()
	if err := json.NewEncoder(res).Encode(status); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) resolveStatus() Status {
	if err := s.getChatStatus(); err != nil {
		return Status{
			IsReady: false,
			Message: fmt.Sprintf("Not connected to Twitch chat. (Error: %s)", err),
		}
	}

	if err := s.getStoreStatus(); err != nil {
		return Status{
			IsReady: false,
			Message: fmt.Sprintf(
				"Connected to chat, but saved styles are unavailable. (Error: %s)",
				err,
			),
		}
	}

	// Missing badges degrade the overlay without making it unusable
	if err := s.getBadgeStatus(); err != nil {
		return Status{
			IsReady: true,
			Message: fmt.Sprintf(
				"Connected to chat, but badge images could not be loaded. (Error: %s)",
				err,
			),
		}
	}

	return Status{
		IsReady: true,
		Message: "Connected to chat, and styles and badges are available. The overlay is fully operational!",
	}
}
