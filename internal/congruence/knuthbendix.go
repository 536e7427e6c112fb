package congruence

import (
	"context"

	"github.com/roach88/semirace/internal/froidurepin"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/runner"
	"github.com/roach88/semirace/internal/rws"
	"github.com/roach88/semirace/internal/rwse"
)

// StrategyKnuthBendix names the completion strategy.
const StrategyKnuthBendix = "knuth-bendix"

// knuthBendix completes the presentation and then enumerates the quotient
// over rewritten words. The completion runner is driven through this
// runner's stop function, so a kill here stops it at its next critical
// pair.
type knuthBendix struct {
	*runner.Base

	completion *rws.KnuthBendix
	maxClass   int
	quotient   *rwsQuotient
}

func newKnuthBendix(p ir.Presentation, b Budget, order rws.Order, copts []rws.CompletionOption, opts ...runner.Option) (*knuthBendix, error) {
	sys := rws.New(p.NrGenerators(), rws.WithOrder(order))
	if err := sys.AddRelations(p.AllRelations()); err != nil {
		return nil, err
	}
	copts = append([]rws.CompletionOption{
		rws.WithMaxRules(b.MaxRules),
		rws.WithMaxOverlapLength(b.MaxOverlapLength),
	}, copts...)

	kb := &knuthBendix{
		completion: rws.NewKnuthBendix(sys, copts...),
		maxClass:   b.MaxClasses,
	}
	kb.Base = runner.NewBase(StrategyKnuthBendix, kb.run, opts...)
	return kb, nil
}

func (kb *knuthBendix) result() quotient {
	return kb.quotient
}

// System returns the rewriting system, complete once the runner finished.
func (kb *knuthBendix) System() *rws.System {
	return kb.completion.System()
}

func (kb *knuthBendix) run(ctx context.Context, stop runner.StopFunc) (bool, error) {
	if kb.quotient == nil {
		if err := kb.completion.RunUntil(ctx, stop); err != nil {
			return false, err
		}
		if !kb.completion.Finished() {
			return false, nil
		}
		q, err := newRWSQuotient(kb.completion.System())
		if err != nil {
			return false, err
		}
		kb.quotient = q
	}
	return kb.quotient.enumerate(kb.maxClass, stop)
}

// rwsQuotient answers queries from a confluent rewriting system.
type rwsQuotient struct {
	sys *rws.System
	fp  *froidurepin.Semigroup[rwse.Element]
}

var _ quotient = (*rwsQuotient)(nil)

func newRWSQuotient(sys *rws.System) (*rwsQuotient, error) {
	fp, err := froidurepin.New(rwse.Generators(sys))
	if err != nil {
		return nil, err
	}
	return &rwsQuotient{sys: sys, fp: fp}, nil
}

func (q *rwsQuotient) enumerate(limit int, stop func() bool) (bool, error) {
	return q.fp.EnumerateUntil(limit, stop)
}

func (q *rwsQuotient) classIndex(w ir.Word) int {
	i, _ := q.fp.Position(rwse.MustNew(q.sys, w))
	return i
}

func (q *rwsQuotient) equal(u, v ir.Word) bool {
	return q.sys.MustRewrite(u).Equal(q.sys.MustRewrite(v))
}

func (q *rwsQuotient) nrClasses() int {
	return q.fp.Size()
}

func (q *rwsQuotient) semigroup() relationSource {
	return q.fp
}
