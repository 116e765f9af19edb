package auth

type Role string

const (
	RoleViewer      Role = "viewer"
	RoleBroadcaster Role = "broadcaster"
)

type UserDetails struct {
	Id          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
}

// AccessClaims describes who the user identified by an access token is, and what
// they're allowed to do
type AccessClaims struct {
	User *UserDetails `json:"user"`
	Role Role         `json:"role"`
}
