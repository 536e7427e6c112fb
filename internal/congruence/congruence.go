// Package congruence decides a finitely presented semigroup's word
// problem by racing a coset enumeration against Knuth-Bendix completion.
//
// Both strategies end by enumerating the quotient with Froidure-Pin over
// their own multiplication (the coset table, or rewritten words), so
// class indices and relations are the same whichever strategy wins:
// class i is the i-th class in shortlex order of least representatives,
// and Relations is the shortlex-reduced complete rewriting system.
//
// Both strategies need a finite quotient. A presentation of an infinite
// semigroup keeps every strategy busy until its budget or the caller's
// context ends, and Run then reports an Incomplete error.
package congruence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roach88/semirace/internal/froidurepin"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/metrics"
	"github.com/roach88/semirace/internal/race"
	"github.com/roach88/semirace/internal/runner"
	"github.com/roach88/semirace/internal/rws"
)

// DefaultMaxClasses caps the quotient enumerated by either strategy.
const DefaultMaxClasses = 1_000_000

// Strategies lists every strategy name in default race order.
var Strategies = []string{StrategyToddCoxeter, StrategyKnuthBendix}

// Budget bounds a run. Zero fields are unlimited, except Timeout where
// zero means the caller's context alone decides.
type Budget struct {
	MaxRules         int           `json:"max_rules" yaml:"max_rules"`
	MaxOverlapLength int           `json:"max_overlap_length" yaml:"max_overlap_length"`
	MaxCosets        int           `json:"max_cosets" yaml:"max_cosets"`
	MaxClasses       int           `json:"max_classes" yaml:"max_classes"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultBudget returns the budget used when none is given.
func DefaultBudget() Budget {
	return Budget{
		MaxRules:   rws.DefaultMaxRules,
		MaxCosets:  DefaultMaxCosets,
		MaxClasses: DefaultMaxClasses,
	}
}

// quotient answers queries once a strategy has finished.
type quotient interface {
	enumerate(limit int, stop func() bool) (bool, error)
	classIndex(w ir.Word) int
	equal(u, v ir.Word) bool
	nrClasses() int
	semigroup() relationSource
}

type relationSource interface {
	Relations() []ir.Relation
}

// strategy is a runner that produces a quotient.
type strategy interface {
	runner.Runner
	result() quotient
}

// Option configures a Congruence.
type Option func(*config)

type config struct {
	strategies []string
	budget     Budget
	order      rws.Order
	logger     *slog.Logger
	metrics    *metrics.Metrics
	raceOpts   []race.Option
}

// WithStrategies restricts the race to the named strategies, in order.
func WithStrategies(names ...string) Option {
	return func(c *config) {
		c.strategies = append([]string(nil), names...)
	}
}

// WithBudget sets the initial budget.
func WithBudget(b Budget) Option {
	return func(c *config) {
		c.budget = b
	}
}

// WithOrder sets the reduction order used by Knuth-Bendix.
// Default: rws.ShortLex.
func WithOrder(o rws.Order) Option {
	return func(c *config) {
		if o != nil {
			c.order = o
		}
	}
}

// WithLogger sets the logger passed to the race and every strategy.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every race, and the size of each rule set
// certified by a winning completion, on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithRaceOptions passes options to every race the congruence builds.
func WithRaceOptions(opts ...race.Option) Option {
	return func(c *config) {
		c.raceOpts = append(c.raceOpts, opts...)
	}
}

// Congruence is the congruence generated by a presentation's relations
// and extra pairs on the free semigroup over its alphabet.
//
// Queries run the race on first use. Safe for concurrent use; queries
// block while a race is running.
type Congruence struct {
	p   ir.Presentation
	cfg config

	mu     sync.Mutex
	winner strategy
	runID  string
}

// New validates p and prepares the strategies. Nothing runs until Run or
// the first query.
func New(p ir.Presentation, opts ...Option) (*Congruence, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cfg := config{
		strategies: Strategies,
		budget:     DefaultBudget(),
		order:      rws.ShortLex{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.strategies) == 0 {
		return nil, ir.NewConfigurationError("no strategies selected")
	}
	for _, name := range cfg.strategies {
		if !slices.Contains(Strategies, name) {
			return nil, ir.NewConfigurationError("unknown strategy %q (known: %s)", name, strings.Join(Strategies, ", "))
		}
	}
	return &Congruence{p: p, cfg: cfg}, nil
}

// FromSemigroup returns the congruence on the free semigroup over s's
// generators generated by s's defining relations and extra. s must be
// fully enumerated.
func FromSemigroup[E froidurepin.Element[E]](s *froidurepin.Semigroup[E], extra []ir.Relation, opts ...Option) (*Congruence, error) {
	if !s.Finished() {
		return nil, ir.NewConfigurationError("semigroup is not fully enumerated (%d elements so far)", s.Size())
	}
	p := ir.Presentation{
		Name:      "froidure-pin",
		Alphabet:  ir.DefaultAlphabet(s.NrGenerators()),
		Relations: s.Relations(),
		Extra:     extra,
	}
	return New(p, opts...)
}

// Presentation returns the presentation.
func (c *Congruence) Presentation() ir.Presentation {
	return c.p
}

// SetBudget replaces the budget for the next run. A congruence that
// already has a winner keeps it.
func (c *Congruence) SetBudget(b Budget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.budget = b
}

// Run races fresh strategies unless a previous run already produced a
// winner. Returns an Incomplete error wrapping every strategy failure
// when nobody finishes; Run may then be retried, typically after
// SetBudget.
func (c *Congruence) Run(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runLocked(ctx)
}

func (c *Congruence) runLocked(ctx context.Context) error {
	if c.winner != nil {
		return nil
	}
	if c.cfg.budget.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.budget.Timeout)
		defer cancel()
	}

	strategies, err := c.build()
	if err != nil {
		return err
	}
	opts := append([]race.Option{
		race.WithLogger(c.cfg.logger),
		race.WithMetrics(c.cfg.metrics),
	}, c.cfg.raceOpts...)
	r := race.New(opts...)
	for _, s := range strategies {
		if err := r.Add(s); err != nil {
			return err
		}
	}
	if err := r.Run(ctx); err != nil {
		return err
	}
	c.runID = r.RunID()

	w, ok := r.Winner()
	if !ok {
		var errs []error
		for _, s := range strategies {
			if err := s.Err(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			}
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
		}
		return ir.NewIncompleteError(
			fmt.Sprintf("no strategy finished among %s", strings.Join(c.cfg.strategies, ", ")),
			errors.Join(errs...),
		)
	}
	c.winner = w.(strategy)
	if kb, ok := c.winner.(*knuthBendix); ok {
		c.cfg.metrics.ObserveCompletion(kb.System().NrRules())
	}
	c.cfg.logger.Info("congruence decided",
		"presentation", c.p.Name,
		"winner", w.Name(),
		"classes", c.winner.result().nrClasses(),
		"run_id", c.runID,
	)
	return nil
}

func (c *Congruence) build() ([]strategy, error) {
	ropts := []runner.Option{runner.WithLogger(c.cfg.logger)}
	out := make([]strategy, 0, len(c.cfg.strategies))
	for _, name := range c.cfg.strategies {
		switch name {
		case StrategyToddCoxeter:
			out = append(out, newToddCoxeter(c.p, c.cfg.budget, ropts...))
		case StrategyKnuthBendix:
			kb, err := newKnuthBendix(c.p, c.cfg.budget, c.cfg.order,
				[]rws.CompletionOption{rws.WithCompletionLogger(c.cfg.logger)}, ropts...)
			if err != nil {
				return nil, err
			}
			out = append(out, kb)
		}
	}
	return out, nil
}

// result runs the race if needed and returns the winner's quotient.
func (c *Congruence) result(ctx context.Context) (quotient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.runLocked(ctx); err != nil {
		return nil, err
	}
	return c.winner.result(), nil
}

func (c *Congruence) checkWord(w ir.Word) error {
	if len(w) == 0 {
		return ir.NewConfigurationError("the empty word is not a semigroup element")
	}
	return ir.CheckWord(w, c.p.NrGenerators())
}

// ClassIndex returns the index of w's class, in [0, NrClasses).
func (c *Congruence) ClassIndex(ctx context.Context, w ir.Word) (int, error) {
	if err := c.checkWord(w); err != nil {
		return 0, err
	}
	q, err := c.result(ctx)
	if err != nil {
		return 0, err
	}
	return q.classIndex(w), nil
}

// Equal reports whether u and v are in the same class.
func (c *Congruence) Equal(ctx context.Context, u, v ir.Word) (bool, error) {
	if err := c.checkWord(u); err != nil {
		return false, err
	}
	if err := c.checkWord(v); err != nil {
		return false, err
	}
	q, err := c.result(ctx)
	if err != nil {
		return false, err
	}
	return q.equal(u, v), nil
}

// NrClasses returns the number of classes.
func (c *Congruence) NrClasses(ctx context.Context) (int, error) {
	q, err := c.result(ctx)
	if err != nil {
		return 0, err
	}
	return q.nrClasses(), nil
}

// Relations returns the shortlex-reduced complete rewriting system of the
// quotient: one rule per least reducible word, rewritten to its class's
// least word.
func (c *Congruence) Relations(ctx context.Context) ([]ir.Rule, error) {
	q, err := c.result(ctx)
	if err != nil {
		return nil, err
	}
	rels := q.semigroup().Relations()
	out := make([]ir.Rule, len(rels))
	for i, r := range rels {
		out[i] = ir.Rule{LHS: r.Left, RHS: r.Right}
	}
	return out, nil
}

// Winner returns the name of the strategy that decided the congruence, or
// "" if none has yet.
func (c *Congruence) Winner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.winner == nil {
		return ""
	}
	return c.winner.Name()
}

// RunID returns the run ID of the last race.
func (c *Congruence) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// System returns the confluent rewriting system when Knuth-Bendix won.
func (c *Congruence) System() (*rws.System, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kb, ok := c.winner.(*knuthBendix)
	if !ok {
		return nil, false
	}
	return kb.System(), true
}
