// Package moderation lets the broadcaster delete messages, time out or ban users, and
// post to chat from the dashboard, acting with their own access token.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/nicklaw5/helix/v2"
	"golang.org/x/time/rate"

	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/metrics"
	"github.com/golden-vcr/overlay/internal/twitch"
)

// TimeoutDuration is how long a user is timed out for
const TimeoutDuration = 600

// MaxMessageLength is the longest chat message Twitch accepts, in characters
const MaxMessageLength = 500

const (
	TimeoutReason = "Timed out via Live Dashboard"
	BanReason     = "Banned via Live Dashboard"
)

var ErrRateLimited = errors.New("too many moderation actions; try again shortly")
var ErrMissingArgument = errors.New("missing required argument")
var ErrInvalidArgument = errors.New("invalid argument")
var ErrNotPermitted = errors.New("not permitted by Twitch")

// Dispatcher delivers locally-originated chat events to the message ingest
type Dispatcher interface {
	Submit(ev chat.Event) bool
	ActiveInstance() uint64
}

var _ Dispatcher = (*chat.Ingest)(nil)

// ChatSender posts chat messages as a user
type ChatSender interface {
	Say(ctx context.Context, login string, accessToken string, text string) error
}

var _ ChatSender = (*chat.Sender)(nil)

// Moderator carries out moderation actions
type Moderator struct {
	factory    twitch.UserClientFactory
	sender     ChatSender
	limiter    *rate.Limiter
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewModerator returns a Moderator that allows at most actionsPerSecond actions per
// second on average, with short bursts of up to burst actions
func NewModerator(factory twitch.UserClientFactory, sender ChatSender, actionsPerSecond float64, burst int, dispatcher Dispatcher, logger *slog.Logger, m *metrics.Metrics) *Moderator {
	if burst < 1 {
		burst = 1
	}
	return &Moderator{
		factory:    factory,
		sender:     sender,
		limiter:    rate.NewLimiter(rate.Limit(actionsPerSecond), burst),
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
	}
}

// DeleteMessage deletes a single chat message. The caller acts as both broadcaster and
// moderator, so this only works for the owner of the channel. Once Twitch has accepted
// the deletion, the message is removed from our buffer right away rather than waiting
// for the corresponding CLEARMSG.
func (m *Moderator) DeleteMessage(ctx context.Context, accessToken string, messageId string) error {
	if messageId == "" {
		return fmt.Errorf("%w: message ID", ErrMissingArgument)
	}
	err := m.do(ctx, "delete", accessToken, func(client twitch.ModerationClient, caller *helix.User) error {
		r, err := client.DeleteChatMessage(&helix.DeleteChatMessageParams{
			BroadcasterID: caller.ID,
			ModeratorID:   caller.ID,
			MessageID:     messageId,
		})
		if err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		return checkResponse("DeleteChatMessage", r.ResponseCommon)
	})
	if err != nil {
		return err
	}

	m.dispatcher.Submit(chat.Event{
		Kind:     chat.EventKindMessageDeleted,
		Instance: m.dispatcher.ActiveInstance(),
		TargetID: messageId,
	})
	m.logger.Info("deleted chat message", "messageId", messageId)
	return nil
}

// Timeout prevents the user with the given login from chatting for TimeoutDuration
// seconds
func (m *Moderator) Timeout(ctx context.Context, accessToken string, login string) error {
	return m.ban(ctx, "timeout", accessToken, login, TimeoutDuration, TimeoutReason)
}

// Ban permanently bans the user with the given login
func (m *Moderator) Ban(ctx context.Context, accessToken string, login string) error {
	return m.ban(ctx, "ban", accessToken, login, 0, BanReason)
}

func (m *Moderator) ban(ctx context.Context, action string, accessToken string, login string, duration int, reason string) error {
	if login == "" {
		return fmt.Errorf("%w: login", ErrMissingArgument)
	}
	err := m.do(ctx, action, accessToken, func(client twitch.ModerationClient, caller *helix.User) error {
		targetId, err := twitch.GetUserIdByLogin(client, login)
		if err != nil {
			return err
		}
		r, err := client.BanUser(&helix.BanUserParams{
			BroadcasterID: caller.ID,
			ModeratorId:   caller.ID,
			Body: helix.BanUserRequestBody{
				Duration: duration,
				Reason:   reason,
				UserId:   targetId,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to ban user: %w", err)
		}
		return checkResponse("BanUser", r.ResponseCommon)
	})
	if err != nil {
		return err
	}
	m.logger.Info("removed user from chat", "action", action, "login", login, "duration", duration)
	return nil
}

// Say posts a message to the caller's own chat. The overlay picks the message up from
// chat like any other.
func (m *Moderator) Say(ctx context.Context, accessToken string, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: message", ErrMissingArgument)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return fmt.Errorf("%w: message is longer than %d characters", ErrInvalidArgument, MaxMessageLength)
	}
	err := m.do(ctx, "say", accessToken, func(_ twitch.ModerationClient, caller *helix.User) error {
		err := m.sender.Say(ctx, caller.Login, accessToken, text)
		if errors.Is(err, chat.ErrLoginRejected) || errors.Is(err, chat.ErrMessageRejected) {
			return fmt.Errorf("%w: %w", ErrNotPermitted, err)
		}
		return err
	})
	if err != nil {
		return err
	}
	m.logger.Info("sent chat message", "length", len(text))
	return nil
}

// do runs a single rate-limited moderation action with a client acting as the caller
func (m *Moderator) do(ctx context.Context, action string, accessToken string, f func(client twitch.ModerationClient, caller *helix.User) error) error {
	if !m.limiter.Allow() {
		m.metrics.IncModerationActions(action, "rate_limited")
		return ErrRateLimited
	}
	err := func() error {
		client, err := m.factory.NewUserClient(ctx, accessToken)
		if err != nil {
			return err
		}
		caller, err := twitch.GetTokenUser(client)
		if err != nil {
			return err
		}
		return f(client, caller)
	}()
	if err != nil {
		m.metrics.IncModerationActions(action, "error")
		m.logger.Error("moderation action failed", "action", action, "error", err)
		return err
	}
	m.metrics.IncModerationActions(action, "ok")
	return nil
}

func checkResponse(operation string, r helix.ResponseCommon) error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}
	if r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s: %s", ErrNotPermitted, operation, r.ErrorMessage)
	}
	return fmt.Errorf("got response %d from %s: %s", r.StatusCode, operation, r.ErrorMessage)
}
