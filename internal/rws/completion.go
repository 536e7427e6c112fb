package rws

import (
	"container/heap"
	"context"
	"log/slog"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/time/rate"

	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/runner"
)

// DefaultMaxRules caps the rule set grown by completion. Presentations
// without a finite complete system would otherwise grow forever.
const DefaultMaxRules = 5000

// DefaultProgressInterval is the minimum time between progress log lines.
const DefaultProgressInterval = 2 * time.Second

// KnuthBendix is the Knuth-Bendix completion procedure as a runner.Runner.
//
// Each run drains a queue of rule pairs, lightest first. For every critical
// pair of a rule pair, both reducts are rewritten to normal form; if they
// differ the resulting equation is oriented and added to the System. The
// run finishes, certifying confluence, when the queue is empty and no
// overlap was skipped.
//
// Every rule pair taken from the queue and every critical pair is a
// suspension point. Stopping inside a pair pushes it back with its
// cursor, so a later run resumes exactly where the previous one stopped,
// and the System stays usable for rewriting.
type KnuthBendix struct {
	*runner.Base

	sys        *System
	maxRules   int
	maxOverlap int
	logger     *slog.Logger
	progress   rate.Sometimes

	queue   pairQueue
	seen    int   // rules [0, seen) have had their pairs enqueued
	seq     int64 // pair enqueue counter
	skipped int   // overlaps skipped by the length cap
	stats   Stats
}

// Stats reports completion progress.
type Stats struct {
	PairsProcessed int64 `json:"pairs_processed"`
	Overlaps       int64 `json:"overlaps"`
	RulesAdded     int   `json:"rules_added"`
	Skipped        int   `json:"skipped"`
	Pending        int   `json:"pending"`
}

// CompletionOption configures a KnuthBendix runner.
type CompletionOption func(*KnuthBendix)

// WithMaxRules caps the number of rules. Exceeding it stops the run with a
// ResourceExhausted error. Zero disables the cap.
//
// Default: DefaultMaxRules.
func WithMaxRules(n int) CompletionOption {
	return func(kb *KnuthBendix) {
		kb.maxRules = n
	}
}

// WithMaxOverlapLength skips critical pairs whose overlap word is longer
// than n. A run that skipped anything cannot certify confluence and ends
// with a ResourceExhausted error once the queue is empty. Zero disables
// the cap.
//
// Default: 0.
func WithMaxOverlapLength(n int) CompletionOption {
	return func(kb *KnuthBendix) {
		kb.maxOverlap = n
	}
}

// WithCompletionLogger sets the logger for lifecycle and progress messages.
func WithCompletionLogger(l *slog.Logger) CompletionOption {
	return func(kb *KnuthBendix) {
		if l != nil {
			kb.logger = l
		}
	}
}

// WithProgressInterval sets the minimum time between progress log lines.
func WithProgressInterval(d time.Duration) CompletionOption {
	return func(kb *KnuthBendix) {
		kb.progress = rate.Sometimes{Interval: d}
	}
}

// NewKnuthBendix creates a completion runner for sys. The runner becomes
// the only writer of sys while it is Running.
func NewKnuthBendix(sys *System, opts ...CompletionOption) *KnuthBendix {
	kb := &KnuthBendix{
		sys:      sys,
		maxRules: DefaultMaxRules,
		logger:   slog.New(slog.DiscardHandler),
		progress: rate.Sometimes{Interval: DefaultProgressInterval},
	}
	for _, opt := range opts {
		opt(kb)
	}
	kb.Base = runner.NewBase("knuth-bendix", kb.run, runner.WithLogger(kb.logger))
	return kb
}

// System returns the rewriting system being completed.
func (kb *KnuthBendix) System() *System {
	return kb.sys
}

// Stats returns a snapshot of completion progress. Not safe to call while
// the runner is Running on another goroutine.
func (kb *KnuthBendix) Stats() Stats {
	st := kb.stats
	st.Skipped = kb.skipped
	st.Pending = kb.queue.Len()
	return st
}

// run is the runner.Body.
func (kb *KnuthBendix) run(ctx context.Context, stop runner.StopFunc) (bool, error) {
	if kb.sys.Confluent() {
		// Certified elsewhere (CheckConfluent or an earlier run) and
		// unchanged since.
		kb.seen = kb.sys.NrRules()
		kb.sys.drainChanged()
		kb.queue = kb.queue[:0]
		return true, nil
	}

	kb.enqueueNew()

	for kb.queue.Len() > 0 {
		// A popped pair is a suspension point whether or not it has
		// overlaps.
		if stop() {
			return false, nil
		}
		p := heap.Pop(&kb.queue).(*pair)
		cps := kb.sys.overlaps(p.i, p.j)

		for polled := true; p.cursor < len(cps); polled = false {
			if !polled && stop() {
				heap.Push(&kb.queue, p)
				return false, nil
			}
			cp := cps[p.cursor]
			p.cursor++
			kb.stats.Overlaps++

			if kb.maxOverlap > 0 && len(cp.word) > kb.maxOverlap {
				kb.skipped++
				continue
			}

			added, err := kb.resolve(cp)
			if err != nil {
				return false, err
			}
			if added {
				kb.enqueueNew()
			}
		}
		kb.stats.PairsProcessed++

		kb.progress.Do(func() {
			kb.logger.Info("knuth-bendix progress",
				"rules", kb.sys.NrRules(),
				"pending_pairs", kb.queue.Len(),
				"overlaps", kb.stats.Overlaps,
			)
		})
	}

	if kb.skipped > 0 {
		return false, ir.NewResourceExhaustedError("overlap length", kb.maxOverlap+1, kb.maxOverlap)
	}

	kb.sys.confluent.Store(true)
	kb.logger.Info("knuth-bendix complete",
		"rules", kb.sys.NrRules(),
		"overlaps", kb.stats.Overlaps,
		"rules_added", kb.stats.RulesAdded,
	)
	return true, nil
}

// resolve rewrites both reducts of cp and adds the resulting equation when
// they differ. Reports whether a rule was added.
func (kb *KnuthBendix) resolve(cp criticalPair) (bool, error) {
	a := kb.sys.rewrite(cp.left)
	b := kb.sys.rewrite(cp.right)
	if a.Equal(b) {
		return false, nil
	}

	if err := kb.sys.addOriented(a, b); err != nil {
		return false, err
	}
	kb.stats.RulesAdded++
	kb.normalizeRHS()

	if kb.maxRules > 0 && kb.sys.NrRules() > kb.maxRules {
		return true, ir.NewResourceExhaustedError("rules", kb.sys.NrRules(), kb.maxRules)
	}
	return true, nil
}

// normalizeRHS replaces every reducible RHS by its normal form.
func (kb *KnuthBendix) normalizeRHS() {
	s := kb.sys
	for i := range s.rules {
		nf := s.rewrite(s.rules[i].RHS)
		if !nf.Equal(s.rules[i].RHS) {
			s.rules[i].RHS = nf
		}
	}
}

// enqueueNew queues every pair involving a rule that is new or whose RHS
// was replaced since the last call.
func (kb *KnuthBendix) enqueueNew() {
	n := kb.sys.NrRules()

	fresh := mapset.NewThreadUnsafeSet[int]()
	for i := kb.seen; i < n; i++ {
		fresh.Add(i)
	}
	for _, i := range kb.sys.drainChanged() {
		fresh.Add(i)
	}
	kb.seen = n
	if fresh.IsEmpty() {
		return
	}

	order := fresh.ToSlice()
	slices.Sort(order)

	queued := mapset.NewThreadUnsafeSet[[2]int]()
	for _, i := range order {
		for j := 0; j < n; j++ {
			for _, ij := range [2][2]int{{i, j}, {j, i}} {
				if queued.Add(ij) {
					kb.push(ij[0], ij[1])
				}
			}
		}
	}
}

func (kb *KnuthBendix) push(i, j int) {
	kb.seq++
	heap.Push(&kb.queue, &pair{
		i:      i,
		j:      j,
		weight: len(kb.sys.rules[i].LHS) + len(kb.sys.rules[j].LHS),
		seq:    kb.seq,
	})
}
