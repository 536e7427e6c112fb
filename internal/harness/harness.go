package harness

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/semirace/internal/compiler"
	"github.com/roach88/semirace/internal/congruence"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/race"
	"github.com/roach88/semirace/internal/rws"
	"github.com/roach88/semirace/internal/store"
	"github.com/roach88/semirace/internal/testutil"
)

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger passed to the race and the strategies.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Harness executes one scenario against a fresh in-memory store.
type Harness struct {
	scenario *Scenario
	p        *ir.Presentation
	store    *store.Store
	recorder *store.Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	events []race.Event
}

// Run executes a scenario and returns the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a scenario.
//
// Execution flow:
//  1. Load the presentation and open a fresh in-memory store
//  2. Race the strategies with a fixed run ID, recording every event
//  3. Describe the quotient (classes, relations, scenario words)
//  4. Cross-check single strategies if asked
//  5. Evaluate assertions
//
// A race without a winner is a result with Outcome OutcomeIncomplete, not
// an error; errors are reserved for scenarios that cannot be executed.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}

	p, err := loadPresentation(scenario)
	if err != nil {
		return nil, err
	}
	h.p = p

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	hash, err := ir.PresentationHash(*p)
	if err != nil {
		return nil, fmt.Errorf("failed to hash presentation: %w", err)
	}
	h.recorder = store.NewRecorder(ctx, st, store.Race{
		PresentationHash: hash,
		PresentationName: p.Name,
		EngineVersion:    ir.EngineVersion,
	}, h.logger)

	c, err := h.newCongruence(scenario.Strategies, h.observe)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	runErr := c.Run(ctx)
	switch {
	case runErr == nil:
		result.Outcome = OutcomeWon
		if err := h.describe(ctx, c, result); err != nil {
			return nil, err
		}
	case ir.IsIncompleteError(runErr):
		result.Outcome = OutcomeIncomplete
		result.RunErr = runErr
	default:
		return nil, fmt.Errorf("failed to run race: %w", runErr)
	}
	if err := h.recorder.Err(); err != nil {
		return nil, fmt.Errorf("failed to record race: %w", err)
	}
	result.Events = h.recorded()
	result.Winner = c.Winner()

	h.logger.Info("scenario raced",
		"scenario", scenario.Name,
		"outcome", result.Outcome,
		"winner", result.Winner,
		"classes", result.NrClasses,
	)

	if scenario.CrossCheck && result.Outcome == OutcomeWon {
		for _, msg := range h.crossCheck(ctx, result) {
			result.AddError(msg)
		}
	}

	actx := &AssertionContext{
		Ctx:        ctx,
		Congruence: c,
		Alphabet:   p.Alphabet,
		Store:      st,
		RunID:      c.RunID(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func loadPresentation(s *Scenario) (*ir.Presentation, error) {
	var (
		p   *ir.Presentation
		err error
	)
	switch {
	case s.Presentation != "":
		p, err = compiler.LoadFile(s.Presentation)
	case s.Inline != nil:
		p, err = compiler.Build(s.Inline)
	default:
		return nil, fmt.Errorf("scenario %q has no presentation", s.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load presentation: %w", err)
	}
	if p.Name == "" {
		p.Name = s.Name
	}
	return p, nil
}

// newCongruence builds a congruence for the scenario. observer may be nil.
func (h *Harness) newCongruence(strategies []string, observer race.Observer) (*congruence.Congruence, error) {
	s := h.scenario

	mode := race.Sequential
	if s.Mode != "" {
		m, err := race.ParseMode(s.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}
	order, ok := rws.OrderByName(s.Order)
	if !ok {
		return nil, fmt.Errorf("unknown reduction order %q", s.Order)
	}

	raceOpts := []race.Option{
		race.WithMode(mode),
		race.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(s.RunID)),
	}
	if observer != nil {
		raceOpts = append(raceOpts, race.WithObserver(observer))
	}
	opts := []congruence.Option{
		congruence.WithBudget(s.Budget.Apply(congruence.DefaultBudget())),
		congruence.WithOrder(order),
		congruence.WithLogger(h.logger),
		congruence.WithRaceOptions(raceOpts...),
	}
	if len(strategies) > 0 {
		opts = append(opts, congruence.WithStrategies(strategies...))
	}
	return congruence.New(*h.p, opts...)
}

func (h *Harness) observe(e race.Event) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
	h.recorder.Observe(e)
}

func (h *Harness) recorded() []race.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := slices.Clone(h.events)
	slices.SortFunc(out, func(a, b race.Event) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	if out == nil {
		out = []race.Event{}
	}
	return out
}

// describe fills the quotient fields of result from a decided congruence.
func (h *Harness) describe(ctx context.Context, c *congruence.Congruence, result *Result) error {
	n, err := c.NrClasses(ctx)
	if err != nil {
		return fmt.Errorf("failed to count classes: %w", err)
	}
	result.NrClasses = n

	rules, err := c.Relations(ctx)
	if err != nil {
		return fmt.Errorf("failed to read relations: %w", err)
	}
	result.Relations = FormatRules(h.p.Alphabet, rules)

	for _, s := range h.scenario.Words {
		w, err := h.p.Alphabet.Parse(s)
		if err != nil {
			return fmt.Errorf("words: %w", err)
		}
		idx, err := c.ClassIndex(ctx, w)
		if err != nil {
			return fmt.Errorf("words: %q: %w", s, err)
		}
		result.Classes = append(result.Classes, WordClass{Word: s, Index: idx})
	}
	return nil
}

// crossCheck decides the congruence with each strategy alone and reports
// every disagreement with the race.
func (h *Harness) crossCheck(ctx context.Context, result *Result) []string {
	strategies := h.scenario.Strategies
	if len(strategies) == 0 {
		strategies = congruence.Strategies
	}

	var msgs []string
	for _, name := range strategies {
		c, err := h.newCongruence([]string{name}, nil)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("cross-check %s: %v", name, err))
			continue
		}
		n, err := c.NrClasses(ctx)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("cross-check %s: %v", name, err))
			continue
		}
		if n != result.NrClasses {
			msgs = append(msgs, fmt.Sprintf("cross-check %s: %d classes, race found %d", name, n, result.NrClasses))
		}
		rules, err := c.Relations(ctx)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("cross-check %s: %v", name, err))
			continue
		}
		if got := FormatRules(h.p.Alphabet, rules); !slices.Equal(got, result.Relations) {
			msgs = append(msgs, fmt.Sprintf("cross-check %s: relations %v, race found %v", name, got, result.Relations))
		}
	}
	return msgs
}

// FormatRules renders rules as "lhs -> rhs" over the alphabet.
func FormatRules(a ir.Alphabet, rules []ir.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = a.Format(r.LHS) + " -> " + a.Format(r.RHS)
	}
	return out
}
