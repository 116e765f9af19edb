package twitch

import "github.com/nicklaw5/helix/v2"

// UserReader represents the subset of Twitch Helix API operations required to look up
// users by login name, or the user who owns the current access token
type UserReader interface {
	GetUsers(params *helix.UsersParams) (*helix.UsersResponse, error)
}

// BadgeReader represents the subset of Twitch Helix API operations required to build
// a catalog of chat badges for a channel
type BadgeReader interface {
	UserReader
	GetGlobalChatBadges() (*helix.GetChatBadgeResponse, error)
	GetChannelChatBadges(params *helix.GetChatBadgeParams) (*helix.GetChatBadgeResponse, error)
}

// ModerationClient represents the subset of Twitch Helix API operations required to
// moderate chat on behalf of a user
type ModerationClient interface {
	UserReader
	DeleteChatMessage(params *helix.DeleteChatMessageParams) (*helix.DeleteChatMessageResponse, error)
	BanUser(params *helix.BanUserParams) (*helix.BanUserResponse, error)
}

var _ BadgeReader = (*helix.Client)(nil)
var _ ModerationClient = (*helix.Client)(nil)
