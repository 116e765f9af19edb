package twitch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicklaw5/helix/v2"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUnauthorized = errors.New("got 401 response from Twitch API")

// GetUserIdByLogin resolves a login name (e.g. a channel name) to a Twitch user ID
func GetUserIdByLogin(client UserReader, login string) (string, error) {
	r, err := client.GetUsers(&helix.UsersParams{
		Logins: []string{strings.ToLower(login)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get user ID: %w", err)
	}
	if r.StatusCode != http.StatusOK {
		return "", fmt.Errorf("got response %d from get users request: %s", r.StatusCode, r.ErrorMessage)
	}
	if len(r.Data.Users) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}
	if len(r.Data.Users) != 1 {
		return "", fmt.Errorf("got %d results from get users request; expected exactly 1", len(r.Data.Users))
	}
	return r.Data.Users[0].ID, nil
}

// GetTokenUser resolves the user who owns the access token that the client was
// configured with
func GetTokenUser(client UserReader) (*helix.User, error) {
	r, err := client.GetUsers(&helix.UsersParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if r.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got response %d from get users request: %s", r.StatusCode, r.ErrorMessage)
	}
	if len(r.Data.Users) != 1 {
		return nil, fmt.Errorf("%w: got %d results for token owner", ErrUserNotFound, len(r.Data.Users))
	}
	return &r.Data.Users[0], nil
}
