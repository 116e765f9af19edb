package auth

import (
	"log/slog"

	"github.com/gorilla/mux"

	"github.com/golden-vcr/overlay/internal/twitch"
)

// Server identifies dashboard users from their Twitch access tokens. The broadcaster
// is the owner of the channel the overlay was configured for; everyone else is a
// viewer.
type Server struct {
	channelUserId string
	users         twitch.TokenUserResolver
	logger        *slog.Logger
}

func NewServer(channelUserId string, users twitch.TokenUserResolver, logger *slog.Logger) *Server {
	return &Server{
		channelUserId: channelUserId,
		users:         users,
		logger:        logger,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	// Allows the dashboard to determine whether the user identified by a User Access
	// Token (supplied in the Authorization header) is the broadcaster
	r.Path("/access").Methods("GET").HandlerFunc(s.handleGetAccess)
}
