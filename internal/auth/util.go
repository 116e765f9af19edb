package auth

import (
	"net/http"
	"strings"
)

// accessTokenFromRequest returns the Twitch user access token supplied in the
// request's Authorization header. The token may be given bare or with a 'Bearer' or
// 'OAuth' scheme (as Twitch itself accepts), matched case-insensitively.
func accessTokenFromRequest(req *http.Request) string {
	value := strings.TrimSpace(req.Header.Get("authorization"))
	for _, scheme := range []string{"bearer ", "oauth "} {
		if len(value) >= len(scheme) && strings.EqualFold(value[:len(scheme)], scheme) {
			return strings.TrimSpace(value[len(scheme):])
		}
	}
	return value
}
