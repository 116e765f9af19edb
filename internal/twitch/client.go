package twitch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"
)

// NewClientWithAppToken returns a Helix client authenticated as our application, for
// calls that don't act on behalf of a particular user (e.g. badge and user lookups)
func NewClientWithAppToken(clientId string, clientSecret string) (*helix.Client, error) {
	c, err := helix.NewClient(&helix.Options{
		ClientID:     clientId,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}

	res, err := c.RequestAppAccessToken(nil)
	if err == nil && res.StatusCode != http.StatusOK {
		err = fmt.Errorf("got status %d: %s", res.StatusCode, res.ErrorMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app access token from Twitch API: %w", err)
	}

	c.SetAppAccessToken(res.Data.AccessToken)
	return c, nil
}

// UserClientFactory produces Helix clients that act with the authority of the user
// whose access token is supplied
type UserClientFactory interface {
	NewUserClient(ctx context.Context, accessToken string) (ModerationClient, error)
}

// TokenUserResolver identifies the user who owns an access token
type TokenUserResolver interface {
	ResolveTokenUser(ctx context.Context, accessToken string) (*helix.User, error)
}

// UserClients makes Helix calls on behalf of users, using our application's client ID
// along with each user's own access token
type UserClients struct {
	clientId string
}

func NewUserClients(clientId string) *UserClients {
	return &UserClients{clientId: clientId}
}

func (u *UserClients) NewUserClient(ctx context.Context, accessToken string) (ModerationClient, error) {
	c, err := helix.NewClientWithContext(ctx, &helix.Options{
		ClientID: u.clientId,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}
	c.SetUserAccessToken(accessToken)
	return c, nil
}

// ResolveTokenUser returns the details of the user who owns accessToken, or
// ErrUnauthorized if Twitch doesn't accept the token
func (u *UserClients) ResolveTokenUser(ctx context.Context, accessToken string) (*helix.User, error) {
	c, err := u.NewUserClient(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return GetTokenUser(c)
}

var _ UserClientFactory = (*UserClients)(nil)
var _ TokenUserResolver = (*UserClients)(nil)
