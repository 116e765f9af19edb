package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	irc "github.com/gempir/go-twitch-irc/v4"
)

var ErrLoginRejected = errors.New("chat login rejected by Twitch")
var ErrMessageRejected = errors.New("chat message rejected by Twitch")

// SendClient is the subset of the go-twitch-irc client used by a Sender
type SendClient interface {
	IrcConnection
	OnUserStateMessage(func(irc.UserStateMessage))
	OnNoticeMessage(func(irc.NoticeMessage))
	Join(channels ...string)
	Say(channel string, text string)
}

// NewAuthenticatedTransport returns an IRC client that chats as the user who owns
// accessToken
func NewAuthenticatedTransport(login string, accessToken string) SendClient {
	return irc.NewClient(login, "oauth:"+accessToken)
}

// Sender posts chat messages on behalf of a user, each over its own short-lived IRC
// connection
type Sender struct {
	newClient func(login string, accessToken string) SendClient
	timeout   time.Duration
	logger    *slog.Logger
}

func NewSender(newClient func(login string, accessToken string) SendClient, timeout time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		newClient: newClient,
		timeout:   timeout,
		logger:    logger,
	}
}

// Say posts text to the user's own channel and waits for Twitch to accept it. Twitch
// answers our JOIN with a USERSTATE, and each message we send with another; a NOTICE
// in the channel means the message was refused.
func (s *Sender) Say(ctx context.Context, login string, accessToken string, text string) error {
	channel := strings.ToLower(login)
	text = strings.NewReplacer("\r", " ", "\n", " ").Replace(text)

	result := make(chan error, 1)
	finish := func(err error) {
		select {
		case result <- err:
		default:
		}
	}

	// The client calls these one at a time, from a single goroutine
	client := s.newClient(login, accessToken)
	numUserStates := 0
	client.OnUserStateMessage(func(m irc.UserStateMessage) {
		if m.Channel != channel {
			return
		}
		numUserStates++
		if numUserStates == 1 {
			client.Say(channel, text)
			return
		}
		finish(nil)
	})
	client.OnNoticeMessage(func(m irc.NoticeMessage) {
		if m.Channel != channel || !strings.HasPrefix(m.MsgID, "msg_") {
			return
		}
		finish(fmt.Errorf("%w: %s", ErrMessageRejected, m.Message))
	})
	client.Join(channel)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	conn := NewConnection(client, nil)
	if err := conn.Open(ctx, nil); err != nil {
		if errors.Is(err, irc.ErrLoginAuthenticationFailed) {
			return fmt.Errorf("%w: %v", ErrLoginRejected, err)
		}
		return fmt.Errorf("failed to connect to chat: %w", err)
	}
	defer conn.Close()

	select {
	case err := <-result:
		if err != nil {
			return err
		}
		s.logger.Info("sent chat message", "channel", channel)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no response from chat after sending message: %w", ctx.Err())
	}
}
