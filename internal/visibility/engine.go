package visibility

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/metrics"
)

// EvaluationInterval is how often the visible window is recomputed so that messages
// age out even when nothing else happens
const EvaluationInterval = time.Second

// MessageSource supplies the buffered messages that visibility is computed from
type MessageSource interface {
	Snapshot() []chat.Message
	Changes() <-chan struct{}
}

var _ MessageSource = (*chat.Ingest)(nil)

// View is the set of messages visible at a particular moment, oldest first
type View struct {
	Messages    []chat.Message
	EvaluatedAt time.Time
}

// PublishFunc receives each new View
type PublishFunc func(view View)

// Engine keeps the visible window up to date as messages arrive, age out, or the
// policy changes, and publishes a new View whenever the sequence of visible messages
// changes
type Engine struct {
	source   MessageSource
	publish  PublishFunc
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	policy  Policy
	current View
}

func NewEngine(source MessageSource, policy Policy, publish PublishFunc, logger *slog.Logger, m *metrics.Metrics) *Engine {
	if publish == nil {
		publish = func(View) {}
	}
	return &Engine{
		source:   source,
		publish:  publish,
		interval: EvaluationInterval,
		now:      time.Now,
		logger:   logger,
		metrics:  m,
		policy:   clonePolicy(policy),
		current:  View{Messages: []chat.Message{}},
	}
}

// Run re-evaluates the visible window on every tick and every change to the message
// source, until the context is canceled
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.evaluate()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.evaluate()
		case <-e.source.Changes():
			e.evaluate()
		}
	}
}

// Current returns the most recently computed View
func (e *Engine) Current() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{
		Messages:    slices.Clone(e.current.Messages),
		EvaluatedAt: e.current.EvaluatedAt,
	}
}

// Policy returns the policy currently in effect
func (e *Engine) Policy() Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clonePolicy(e.policy)
}

// SetPolicy replaces the policy and immediately re-evaluates the visible window
func (e *Engine) SetPolicy(p Policy) {
	e.mu.Lock()
	changed := !slices.Equal(e.policy.IgnoredUsers, p.IgnoredUsers) ||
		e.policy.AutoHideSeconds != p.AutoHideSeconds ||
		e.policy.MaxMessages != p.MaxMessages
	e.policy = clonePolicy(p)
	e.mu.Unlock()

	if changed {
		e.logger.Info("visibility policy changed", "ignoredUsers", len(p.IgnoredUsers), "autoHideSeconds", p.AutoHideSeconds, "maxMessages", p.MaxMessages)
		e.evaluate()
	}
}

// evaluate recomputes the visible window and publishes it if it has changed
func (e *Engine) evaluate() {
	buffer := e.source.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	visible := ComputeVisible(buffer, e.policy, now)
	if sameIds(visible, e.current.Messages) && !e.current.EvaluatedAt.IsZero() {
		return
	}
	e.current = View{Messages: visible, EvaluatedAt: now}
	e.metrics.SetVisibleMessages(len(visible))
	e.publish(View{Messages: slices.Clone(visible), EvaluatedAt: now})
}

func clonePolicy(p Policy) Policy {
	return Policy{
		IgnoredUsers:    slices.Clone(p.IgnoredUsers),
		AutoHideSeconds: p.AutoHideSeconds,
		MaxMessages:     p.MaxMessages,
	}
}
