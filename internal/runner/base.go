package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/semirace/internal/ir"
)

// Option configures a Base.
type Option func(*Base)

// WithLogger sets the logger used for lifecycle messages.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.logger = l
		}
	}
}

// Base implements the Runner lifecycle around a Body. Concrete runners
// embed *Base and pass one of their methods as the Body.
//
// INVARIANTS:
//   - state and reason change only under mu
//   - killed never goes from true back to false
//   - once StateDead, the state never changes again
type Base struct {
	name   string
	body   Body
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	reason Reason
	err    error

	killed atomic.Bool
	polls  atomic.Int64
}

var _ Runner = (*Base)(nil)

// NewBase creates a Base running body.
func NewBase(name string, body Body, opts ...Option) *Base {
	b := &Base{
		name:   name,
		body:   body,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the runner name.
func (b *Base) Name() string {
	return b.name
}

// Logger returns the runner's logger, for use by the Body.
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// Run blocks until the body finishes, ctx ends, or Kill is called.
func (b *Base) Run(ctx context.Context) error {
	return b.execute(ctx, nil)
}

// RunUntil is Run that also stops once pred returns true.
func (b *Base) RunUntil(ctx context.Context, pred func() bool) error {
	return b.execute(ctx, pred)
}

// RunFor is Run with a time budget.
func (b *Base) RunFor(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return b.execute(ctx, nil)
}

// Kill makes the runner Dead. Safe from any goroutine, idempotent.
// A running body observes the kill at its next suspension point.
func (b *Base) Kill() {
	b.killed.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRunning && b.state != StateDead {
		b.state = StateDead
		b.reason = ReasonKilled
		b.logger.Debug("runner killed", "runner", b.name)
	}
}

// Finished reports Stopped(Finished).
func (b *Base) Finished() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateStopped && b.reason == ReasonFinished
}

// Dead reports whether the runner has been killed.
func (b *Base) Dead() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateDead
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reason returns why the runner last stopped.
func (b *Base) Reason() Reason {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reason
}

// Err returns the failure recorded with ReasonExhausted.
func (b *Base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Polls returns how many suspension points the body has passed so far.
// Used for diagnostics and kill-responsiveness tests.
func (b *Base) Polls() int64 {
	return b.polls.Load()
}

// Stopping reports whether Kill has been called. Bodies that nest another
// runner use it to forward the kill.
func (b *Base) Stopping() bool {
	return b.killed.Load()
}

// execute runs the body once, honouring the lifecycle contract.
func (b *Base) execute(ctx context.Context, pred func() bool) error {
	b.mu.Lock()
	switch {
	case b.state == StateDead:
		b.mu.Unlock()
		return ir.NewConfigurationError("runner %s is dead and cannot be run again", b.name)
	case b.state == StateRunning:
		// Re-entrant call: the active invocation owns the body.
		b.mu.Unlock()
		return nil
	case b.state == StateStopped && b.reason == ReasonFinished:
		b.mu.Unlock()
		return nil
	case b.state == StateStopped && b.reason == ReasonExhausted:
		err := b.err
		b.mu.Unlock()
		return err
	}
	b.state = StateRunning
	b.reason = ReasonNone
	b.mu.Unlock()

	b.logger.Debug("runner started", "runner", b.name)

	stop := func() bool {
		b.polls.Add(1)
		if b.killed.Load() || ctx.Err() != nil {
			return true
		}
		return pred != nil && pred()
	}

	done, err := b.body(ctx, stop)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.killed.Load():
		b.state, b.reason = StateDead, ReasonKilled
	case err != nil:
		b.state, b.reason, b.err = StateStopped, ReasonExhausted, err
	case done:
		b.state, b.reason = StateStopped, ReasonFinished
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		b.state, b.reason = StateStopped, ReasonTimedOut
	case ctx.Err() != nil:
		b.state, b.reason = StateStopped, ReasonCancelled
	default:
		b.state, b.reason = StateStopped, ReasonPredicate
	}

	b.logger.Debug("runner stopped",
		"runner", b.name,
		"state", b.state.String(),
		"reason", b.reason.String(),
		"polls", b.polls.Load(),
	)

	if b.reason == ReasonExhausted {
		return err
	}
	return nil
}
