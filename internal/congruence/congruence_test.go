package congruence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/froidurepin"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/metrics"
	"github.com/roach88/semirace/internal/race"
	"github.com/roach88/semirace/internal/rws"
	"github.com/roach88/semirace/internal/testutil"
)

func words(n, maxLen int) []ir.Word {
	var out []ir.Word
	frontier := []ir.Word{{}}
	for l := 1; l <= maxLen; l++ {
		var next []ir.Word
		for _, w := range frontier {
			for x := 0; x < n; x++ {
				next = append(next, ir.Concat(w, ir.NewWord(x)))
			}
		}
		out = append(out, next...)
		frontier = next
	}
	return out
}

func mustNew(t *testing.T, p ir.Presentation, opts ...Option) *Congruence {
	t.Helper()
	c, err := New(p, opts...)
	require.NoError(t, err)
	return c
}

func classes(t *testing.T, c *Congruence, maxLen int) []int {
	t.Helper()
	var out []int
	for _, w := range words(c.Presentation().NrGenerators(), maxLen) {
		i, err := c.ClassIndex(context.Background(), w)
		require.NoError(t, err)
		out = append(out, i)
	}
	return out
}

func TestCongruence_Klein(t *testing.T) {
	for _, name := range Strategies {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := mustNew(t, testutil.Klein(), WithStrategies(name))

			require.NoError(t, c.Run(ctx))
			assert.Equal(t, name, c.Winner())

			n, err := c.NrClasses(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			a := ir.DefaultAlphabet(2)
			eq, err := c.Equal(ctx, a.MustParse("abaa"), a.MustParse("b"))
			require.NoError(t, err)
			assert.True(t, eq)

			eq, err = c.Equal(ctx, a.MustParse("ab"), a.MustParse("ba"))
			require.NoError(t, err)
			assert.True(t, eq)

			eq, err = c.Equal(ctx, a.MustParse("abab"), a.MustParse("b"))
			require.NoError(t, err)
			assert.False(t, eq)

			i, err := c.ClassIndex(ctx, a.MustParse("bab"))
			require.NoError(t, err)
			assert.Equal(t, 0, i)
			i, err = c.ClassIndex(ctx, a.MustParse("bbb"))
			require.NoError(t, err)
			assert.Equal(t, 1, i)
		})
	}
}

func TestCongruence_StrategiesAgree(t *testing.T) {
	fixtures := []ir.Presentation{
		testutil.Klein(),
		testutil.Transformation(),
		testutil.Cyclic(2, 3),
	}
	for _, p := range fixtures {
		t.Run(p.Name, func(t *testing.T) {
			tc := mustNew(t, p, WithStrategies(StrategyToddCoxeter))
			kb := mustNew(t, p, WithStrategies(StrategyKnuthBendix))

			assert.Equal(t, classes(t, tc, 5), classes(t, kb, 5))

			tcRules, err := tc.Relations(context.Background())
			require.NoError(t, err)
			kbRules, err := kb.Relations(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tcRules, kbRules)
		})
	}
}

func TestCongruence_TransformationRelations(t *testing.T) {
	c := mustNew(t, testutil.Transformation())
	rules, err := c.Relations(context.Background())
	require.NoError(t, err)

	a := ir.DefaultAlphabet(2)
	var got []string
	for _, r := range rules {
		got = append(got, a.Format(r.LHS)+"->"+a.Format(r.RHS))
	}
	assert.Equal(t, []string{"ab->b", "bb->b", "aaa->a", "baa->b"}, got)

	n, err := c.NrClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCongruence_CyclicClassCount(t *testing.T) {
	c := mustNew(t, testutil.Cyclic(3, 4))
	n, err := c.NrClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestCongruence_RecursivePathOrderSameAnswers(t *testing.T) {
	shortlex := mustNew(t, testutil.Klein(), WithStrategies(StrategyKnuthBendix))
	rpo := mustNew(t, testutil.Klein(), WithStrategies(StrategyKnuthBendix), WithOrder(rws.RecursivePath{}))

	assert.Equal(t, classes(t, shortlex, 4), classes(t, rpo, 4))

	sys, ok := rpo.System()
	require.True(t, ok)
	assert.Equal(t, "recursive-path", sys.Order().Name())
	assert.True(t, sys.Confluent())
}

func TestCongruence_Race(t *testing.T) {
	var mu sync.Mutex
	var events []race.Event
	observe := func(e race.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	c := mustNew(t, testutil.Klein(), WithRaceOptions(
		race.WithObserver(observe),
		race.WithRunIDGenerator(race.NewFixedGenerator("klein-run")),
	))
	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, Strategies, c.Winner())
	assert.Equal(t, "klein-run", c.RunID())

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, race.EventFinished, last.Kind)
	assert.Equal(t, race.OutcomeWon, last.Reason)
	assert.Equal(t, c.Winner(), last.Runner)

	// Second Run keeps the winner without racing again
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, "klein-run", c.RunID())
}

func TestCongruence_SequentialRace(t *testing.T) {
	c := mustNew(t, testutil.Transformation(), WithRaceOptions(
		race.WithMode(race.Sequential),
		race.WithBurstSteps(4),
	))
	n, err := c.NrClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCongruence_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := mustNew(t, testutil.Klein(),
		WithStrategies(StrategyKnuthBendix),
		WithMetrics(m),
	)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 1.0, promtest.ToFloat64(m.WinsTotal.WithLabelValues(StrategyKnuthBendix)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RacesTotal.WithLabelValues("parallel", race.OutcomeWon)))
	n, err := promtest.GatherAndCount(reg, "semirace_completion_rules")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCongruence_InfiniteIsIncomplete(t *testing.T) {
	c := mustNew(t, testutil.Braid(), WithBudget(Budget{
		MaxRules:   20,
		MaxCosets:  200,
		MaxClasses: 200,
	}))

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ir.IsIncompleteError(err))
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
	assert.Empty(t, c.Winner())

	_, err = c.ClassIndex(context.Background(), ir.NewWord(0))
	assert.True(t, ir.IsIncompleteError(err))
}

func TestCongruence_TimeoutIsIncomplete(t *testing.T) {
	c := mustNew(t, testutil.Braid(), WithBudget(Budget{Timeout: 20 * time.Millisecond}))

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ir.IsIncompleteError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCongruence_RetryAfterSetBudget(t *testing.T) {
	c := mustNew(t, testutil.Cyclic(4, 5),
		WithStrategies(StrategyToddCoxeter),
		WithBudget(Budget{MaxCosets: 3}),
	)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ir.IsIncompleteError(err))

	c.SetBudget(DefaultBudget())
	require.NoError(t, c.Run(context.Background()))

	n, err := c.NrClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestCongruence_BadWords(t *testing.T) {
	c := mustNew(t, testutil.Klein())

	_, err := c.ClassIndex(context.Background(), ir.Word{})
	assert.True(t, ir.IsConfigurationError(err))

	_, err = c.Equal(context.Background(), ir.NewWord(0), ir.NewWord(2))
	assert.True(t, ir.IsOutOfRangeError(err))

	assert.Empty(t, c.Winner(), "bad words are rejected before racing")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(ir.Presentation{})
	assert.True(t, ir.IsConfigurationError(err))

	_, err = New(testutil.Klein(), WithStrategies("magic"))
	assert.True(t, ir.IsConfigurationError(err))

	_, err = New(testutil.Klein(), WithStrategies())
	assert.True(t, ir.IsConfigurationError(err))

	bad := testutil.Klein()
	bad.Extra = []ir.Relation{ir.NewRelation(ir.NewWord(0), ir.NewWord(3))}
	_, err = New(bad)
	assert.True(t, ir.IsOutOfRangeError(err))
}

func TestFromSemigroup(t *testing.T) {
	gens := []froidurepin.Transformation{{1, 2, 0}, {1, 0, 2}, {0, 0, 2}}
	s, err := froidurepin.New(gens)
	require.NoError(t, err)
	require.NoError(t, s.Enumerate(context.Background(), 0))

	c, err := FromSemigroup(s, nil)
	require.NoError(t, err)
	n, err := c.NrClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 27, n)

	// Class indices follow the enumeration order of the semigroup itself
	for i := 0; i < s.Size(); i++ {
		w, ok := s.Factorisation(s.At(i))
		require.True(t, ok)
		got, err := c.ClassIndex(context.Background(), w)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
}

func TestFromSemigroup_Extra(t *testing.T) {
	s, err := froidurepin.New([]froidurepin.Transformation{{1, 0}, {0, 0}})
	require.NoError(t, err)
	require.NoError(t, s.Enumerate(context.Background(), 0))

	// Making a idempotent also collapses ba onto b
	c, err := FromSemigroup(s, []ir.Relation{ir.NewRelation(ir.NewWord(0), ir.NewWord(0, 0))})
	require.NoError(t, err)
	n, err := c.NrClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFromSemigroup_NotEnumerated(t *testing.T) {
	s, err := froidurepin.New([]froidurepin.Transformation{{1, 0}})
	require.NoError(t, err)
	_, err = FromSemigroup(s, nil)
	assert.True(t, ir.IsConfigurationError(err))
}
