package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/golden-vcr/overlay/internal/twitch"
)

type contextKey int

const (
	contextKeyClaims contextKey = iota
	contextKeyAccessToken
)

func (s *Server) handleGetAccess(res http.ResponseWriter, req *http.Request) {
	userAccessToken := accessTokenFromRequest(req)
	if userAccessToken == "" {
		http.Error(res, "Twitch user access token must be supplied in Authorization header", http.StatusBadRequest)
		return
	}

	claims, err := s.checkAccess(req.Context(), userAccessToken)
	if err != nil {
		if errors.Is(err, twitch.ErrUnauthorized) {
			http.Error(res, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(res).Encode(claims); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}

// RequireBroadcaster is middleware that rejects any request not made with the
// broadcaster's access token. Handlers further down the chain can get the caller's
// claims and token with GetClaims and GetAccessToken.
func (s *Server) RequireBroadcaster(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		userAccessToken := accessTokenFromRequest(req)
		if userAccessToken == "" {
			http.Error(res, "Twitch user access token must be supplied in Authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := s.checkAccess(req.Context(), userAccessToken)
		if err != nil {
			if errors.Is(err, twitch.ErrUnauthorized) {
				http.Error(res, err.Error(), http.StatusUnauthorized)
				return
			}
			s.logger.Error("failed to check access", "error", err)
			http.Error(res, err.Error(), http.StatusInternalServerError)
			return
		}
		if claims.Role != RoleBroadcaster {
			s.logger.Warn("rejected request from non-broadcaster", "path", req.URL.Path, "login", claims.User.Login)
			http.Error(res, "only the broadcaster may do that", http.StatusForbidden)
			return
		}

		next.ServeHTTP(res, req.WithContext(WithAccess(req.Context(), claims, userAccessToken)))
	})
}

// GetClaims returns the claims of the caller authorized by RequireBroadcaster, or nil
func GetClaims(ctx context.Context) *AccessClaims {
	claims, _ := ctx.Value(contextKeyClaims).(*AccessClaims)
	return claims
}

// GetAccessToken returns the access token of the caller authorized by
// RequireBroadcaster, or an empty string
func GetAccessToken(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyAccessToken).(string)
	return token
}

// WithAccess returns a context carrying the given claims and token, as if the request
// had passed through RequireBroadcaster
func WithAccess(ctx context.Context, claims *AccessClaims, accessToken string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClaims, claims)
	return context.WithValue(ctx, contextKeyAccessToken, accessToken)
}

func (s *Server) checkAccess(ctx context.Context, accessToken string) (*AccessClaims, error) {
	user, err := s.users.ResolveTokenUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	role := RoleViewer
	if user.ID == s.channelUserId {
		role = RoleBroadcaster
	}
	return &AccessClaims{
		User: &UserDetails{
			Id:          user.ID,
			Login:       user.Login,
			DisplayName: user.DisplayName,
		},
		Role: role,
	}, nil
}
