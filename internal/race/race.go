package race

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/metrics"
	"github.com/roach88/semirace/internal/runner"
)

// Mode selects how a Race drives its runners.
type Mode int

const (
	// Parallel runs every runner on its own goroutine.
	Parallel Mode = iota
	// Sequential drives runners round-robin in bursts on one goroutine.
	Sequential
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case Parallel:
		return "parallel"
	case Sequential:
		return "sequential"
	default:
		return "unknown"
	}
}

// ParseMode parses "parallel" or "sequential".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "parallel":
		return Parallel, nil
	case "sequential":
		return Sequential, nil
	default:
		return 0, ir.NewConfigurationError("unknown race mode %q (want parallel or sequential)", s)
	}
}

// DefaultBurstSteps is the number of suspension points a runner may pass
// in one sequential burst.
const DefaultBurstSteps = 64

// Race owns a set of runners and runs them until one finishes.
//
// A Race is single-use: Run may be called once. Build a new Race (with
// fresh runners) to retry.
//
// INVARIANTS:
//   - winner is written at most once, under mu
//   - every runner other than the winner is killed before winner is
//     visible to winnerSet
//   - Winner reports nothing until Run has returned
type Race struct {
	mode       Mode
	maxThreads int
	burst      time.Duration
	burstSteps int
	logger     *slog.Logger
	observers  []Observer
	ids        IDGenerator
	metrics    *metrics.Metrics
	clock      *Clock

	mu      sync.Mutex
	runners []runner.Runner
	started bool
	done    bool
	winner  runner.Runner
	runID   string

	emitMu sync.Mutex
}

// Option configures a Race.
type Option func(*Race)

// WithMode sets the execution mode. Default: Parallel.
func WithMode(m Mode) Option {
	return func(r *Race) {
		r.mode = m
	}
}

// WithMaxThreads caps the number of runners executing at once in Parallel
// mode. Runners beyond the cap start as slots free up, and are skipped if
// a winner exists by then. Zero means one goroutine per runner.
func WithMaxThreads(n int) Option {
	return func(r *Race) {
		r.maxThreads = n
	}
}

// WithBurst bounds each sequential burst by wall time as well as by
// steps. Zero (the default) bounds bursts by steps only, which keeps
// sequential races deterministic.
func WithBurst(d time.Duration) Option {
	return func(r *Race) {
		r.burst = d
	}
}

// WithBurstSteps sets how many suspension points a runner may pass per
// sequential burst. Default: DefaultBurstSteps.
func WithBurstSteps(n int) Option {
	return func(r *Race) {
		if n > 0 {
			r.burstSteps = n
		}
	}
}

// WithLogger sets the logger for race lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *Race) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver adds an event observer.
func WithObserver(o Observer) Option {
	return func(r *Race) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g IDGenerator) Option {
	return func(r *Race) {
		if g != nil {
			r.ids = g
		}
	}
}

// WithMetrics records race outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Race) {
		r.metrics = m
	}
}

// WithClock sets the logical clock for event seq numbers.
func WithClock(c *Clock) Option {
	return func(r *Race) {
		if c != nil {
			r.clock = c
		}
	}
}

// New creates an empty Race.
func New(opts ...Option) *Race {
	r := &Race{
		mode:       Parallel,
		burstSteps: DefaultBurstSteps,
		logger:     slog.New(slog.DiscardHandler),
		ids:        UUIDv7Generator{},
		clock:      NewClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add hands ownership of rn to the race. Returns a ConfigurationError once
// Run has begun.
func (r *Race) Add(rn runner.Runner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ir.NewConfigurationError("cannot add runner %s: race already started", rn.Name())
	}
	r.runners = append(r.runners, rn)
	return nil
}

// Runners returns the runners in insertion order.
func (r *Race) Runners() []runner.Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runner.Runner(nil), r.runners...)
}

// Winner returns the runner that finished first. ok is false before Run
// returns and when no runner finished.
func (r *Race) Winner() (runner.Runner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done || r.winner == nil {
		return nil, false
	}
	return r.winner, true
}

// RunID returns the ID of the run, or "" before Run.
func (r *Race) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Mode returns the execution mode.
func (r *Race) Mode() Mode {
	return r.mode
}

// Run runs the race to completion.
//
// Runner failures (a runner ending Exhausted) are part of the race
// outcome, not errors of Run: they leave the winner slot to the others.
// Run returns an error only for misuse, such as a second call.
//
// With zero runners Run returns at once and Winner reports no winner.
// With one runner the runner is invoked directly on the calling goroutine.
func (r *Race) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ir.NewConfigurationError("race already run")
	}
	r.started = true
	r.runID = r.ids.Generate()
	runners := append([]runner.Runner(nil), r.runners...)
	r.mu.Unlock()

	start := time.Now()
	r.emit(Event{Kind: EventStarted, State: r.mode.String()})
	r.logger.Debug("race started", "run_id", r.runID, "mode", r.mode.String(), "runners", len(runners))

	switch {
	case len(runners) == 0:
	case len(runners) == 1:
		r.runOne(ctx, runners[0], func(rn runner.Runner) error { return rn.Run(ctx) })
	case r.mode == Sequential:
		r.runSequential(ctx, runners)
	default:
		r.runParallel(ctx, runners)
	}

	r.mu.Lock()
	r.done = true
	winner := r.winner
	r.mu.Unlock()

	outcome, name := OutcomeNoWinner, ""
	if winner != nil {
		outcome, name = OutcomeWon, winner.Name()
	}
	r.emit(Event{Kind: EventFinished, Runner: name, Reason: outcome})
	r.metrics.ObserveRace(r.mode.String(), outcome, time.Since(start).Seconds())
	r.logger.Info("race finished",
		"run_id", r.runID,
		"outcome", outcome,
		"winner", name,
		"duration", time.Since(start),
	)
	return nil
}

func (r *Race) runParallel(ctx context.Context, runners []runner.Runner) {
	var g errgroup.Group
	if r.maxThreads > 0 {
		g.SetLimit(r.maxThreads)
	}
	for _, rn := range runners {
		g.Go(func() error {
			if r.winnerSet() {
				return nil
			}
			r.runOne(ctx, rn, func(rn runner.Runner) error {
				return rn.RunUntil(ctx, r.winnerSet)
			})
			return nil
		})
	}
	_ = g.Wait()
}

// runSequential drives runners round-robin in bursts. A burst that ends
// on its step bound is not reported; a runner left in that state is
// reported once when the loop ends.
func (r *Race) runSequential(ctx context.Context, runners []runner.Runner) {
	unreported := make([]bool, len(runners))
	defer func() {
		for i, rn := range runners {
			if unreported[i] {
				r.reportStop(rn)
			}
		}
	}()

	for {
		live := 0
		for i, rn := range runners {
			if ctx.Err() != nil || r.winnerSet() {
				return
			}
			if terminal(rn) {
				continue
			}
			live++
			r.invoke(rn, func(rn runner.Runner) error {
				return r.runBurst(ctx, rn)
			})
			if rn.State() == runner.StateStopped && rn.Reason() == runner.ReasonPredicate {
				unreported[i] = true
				continue
			}
			unreported[i] = false
			r.settle(rn)
		}
		if live == 0 {
			return
		}
	}
}

// runBurst runs rn for one sequential slice.
func (r *Race) runBurst(ctx context.Context, rn runner.Runner) error {
	if r.burst > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.burst)
		defer cancel()
	}
	steps := 0
	return rn.RunUntil(ctx, func() bool {
		steps++
		return steps > r.burstSteps
	})
}

// runOne invokes rn once through call, reports the stop and claims the
// winner slot if rn finished.
func (r *Race) runOne(ctx context.Context, rn runner.Runner, call func(runner.Runner) error) {
	if err := ctx.Err(); err != nil {
		return
	}
	r.invoke(rn, call)
	r.settle(rn)
}

func (r *Race) invoke(rn runner.Runner, call func(runner.Runner) error) {
	if err := call(rn); err != nil {
		r.logger.Debug("runner failed", "run_id", r.RunID(), "runner", rn.Name(), "error", err)
	}
}

// settle reports rn's stop and claims the winner slot if rn finished.
func (r *Race) settle(rn runner.Runner) {
	r.reportStop(rn)
	if rn.Finished() {
		r.claim(rn)
	}
}

func (r *Race) reportStop(rn runner.Runner) {
	state, reason := rn.State(), rn.Reason()
	r.emit(Event{Kind: EventRunnerStopped, Runner: rn.Name(), State: state.String(), Reason: reason.String()})
	r.metrics.ObserveStop(rn.Name(), reason.String())
}

// claim makes rn the winner unless another runner got there first, and
// kills every other runner while holding the lock.
func (r *Race) claim(rn runner.Runner) {
	r.mu.Lock()
	if r.winner != nil {
		r.mu.Unlock()
		return
	}
	r.winner = rn
	for _, other := range r.runners {
		if other != rn {
			other.Kill()
		}
	}
	r.mu.Unlock()

	r.emit(Event{Kind: EventWinner, Runner: rn.Name(), State: rn.State().String(), Reason: rn.Reason().String()})
	r.metrics.ObserveWin(rn.Name())
	r.logger.Debug("winner claimed", "run_id", r.RunID(), "runner", rn.Name())
}

func (r *Race) winnerSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner != nil
}

func (r *Race) emit(e Event) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	e.RunID = r.runID
	e.Seq = r.clock.Next()
	for _, o := range r.observers {
		o(e)
	}
}

// terminal reports whether rn can make no further progress in this race.
func terminal(rn runner.Runner) bool {
	if rn.Dead() || rn.Finished() {
		return true
	}
	return rn.State() == runner.StateStopped && rn.Reason() == runner.ReasonExhausted
}
