package twitch

// Config carries the Twitch application credentials and the channel whose chat we
// display, as read from the environment
type Config struct {
	ChannelName  string `env:"TWITCH_CHANNEL_NAME" required:"true"`
	ClientId     string `env:"TWITCH_CLIENT_ID" required:"true"`
	ClientSecret string `env:"TWITCH_CLIENT_SECRET" required:"true"`
}
