package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var ErrNoChannel = errors.New("no channel has been selected")

// Supervisor manages the lifecycle of the Agent connected to the current channel.
// Each connect attempt gets a new Agent with a new instance ID; the previous agent is
// disconnected and the ingest is switched over to the new instance before the new
// agent connects, so nothing from a superseded connection can reach the buffer.
type Supervisor struct {
	ingest         *Ingest
	newClient      func() TransportClient
	connectTimeout time.Duration
	logger         *slog.Logger

	// switchMu serializes connection attempts; mu guards the fields below and is
	// never held while waiting on the network
	switchMu     sync.Mutex
	mu           sync.Mutex
	nextInstance uint64
	channel      string
	agent        *Agent
	freshPending bool
}

// NewSupervisor returns a Supervisor that feeds the given ingest. newClient is called
// to create a fresh transport client for every connection attempt.
func NewSupervisor(ingest *Ingest, newClient func() TransportClient, connectTimeout time.Duration, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		ingest:         ingest,
		newClient:      newClient,
		connectTimeout: connectTimeout,
		logger:         logger,
	}
}

// Switch connects to the given channel, replacing any existing connection. Switching
// to a different channel is an explicit session change, so the buffer is cleared once
// the new connection is up; switching to the same channel behaves like Retry.
func (s *Supervisor) Switch(ctx context.Context, channel string) error {
	channel = strings.ToLower(strings.TrimSpace(channel))
	if channel == "" {
		return ErrNoChannel
	}
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	fresh := channel != s.channel
	s.channel = channel
	s.mu.Unlock()
	return s.reconnect(ctx, fresh)
}

// Retry makes a new connection attempt to the current channel, preserving any
// buffered messages
func (s *Supervisor) Retry(ctx context.Context) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	if s.Channel() == "" {
		return ErrNoChannel
	}
	return s.reconnect(ctx, false)
}

// Channel returns the channel we're connected (or trying to connect) to
func (s *Supervisor) Channel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// GetStatus returns nil if chat is connected, or an error describing why not
func (s *Supervisor) GetStatus() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agent == nil {
		return ErrConnectionNotOpen
	}
	return s.agent.GetStatus()
}

// Close disconnects the current agent, if any
func (s *Supervisor) Close() error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnect()
}

// reconnect replaces the current agent with a new one and connects it. A session
// change that hasn't yet resulted in a successful connection stays pending, so the
// buffer is still cleared when a later retry succeeds.
func (s *Supervisor) reconnect(ctx context.Context, fresh bool) error {
	s.mu.Lock()
	if err := s.disconnect(); err != nil {
		s.logger.Warn("error disconnecting previous chat connection", "error", err)
	}
	fresh = fresh || s.freshPending
	s.nextInstance++
	instance := s.nextInstance
	s.ingest.BeginSession(instance)

	sink := func(ev Event) { s.ingest.Submit(ev) }
	agent := NewAgent(instance, s.channel, s.newClient(), sink, s.logger)
	s.agent = agent
	s.mu.Unlock()

	err := agent.Connect(ctx, s.connectTimeout, fresh)

	s.mu.Lock()
	s.freshPending = err != nil && fresh
	s.mu.Unlock()
	return err
}

func (s *Supervisor) disconnect() error {
	if s.agent == nil {
		return nil
	}
	err := s.agent.Disconnect()
	s.agent = nil
	if errors.Is(err, ErrConnectionNotOpen) {
		return nil
	}
	return err
}
