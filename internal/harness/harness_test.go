package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/compiler"
	"github.com/roach88/semirace/internal/congruence"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/race"
)

var compilerSource = compiler.Source{
	Generators: []string{"a"},
	Relations:  []compiler.Relation{compiler.Pair(compiler.TextWord("aa"), compiler.TextWord("a"))},
}

func kleinInline() *compiler.Source {
	w := compiler.TextWord
	return &compiler.Source{
		Generators: []string{"a", "b"},
		Relations: []compiler.Relation{
			compiler.Pair(w("aa"), w("a")),
			compiler.Pair(w("bb"), w("a")),
			compiler.Pair(w("aba"), w("b")),
			compiler.Pair(w("bab"), w("a")),
		},
	}
}

func TestRun_Klein(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "klein.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, OutcomeWon, result.Outcome)
	assert.Contains(t, congruence.Strategies, result.Winner)
	assert.Equal(t, 2, result.NrClasses)
	assert.Equal(t, []string{"aa -> a", "ab -> b", "ba -> b", "bb -> a"}, result.Relations)

	require.NotEmpty(t, result.Events)
	first, last := result.Events[0], result.Events[len(result.Events)-1]
	assert.Equal(t, race.EventStarted, first.Kind)
	assert.Equal(t, "sequential", first.State)
	assert.Equal(t, race.EventFinished, last.Kind)
	assert.Equal(t, result.Winner, last.Runner)
	for i, e := range result.Events {
		assert.Equal(t, "test-run-default", e.RunID)
		if i > 0 {
			assert.Greater(t, e.Seq, result.Events[i-1].Seq)
		}
	}
}

func TestRun_FailingAssertionsAreCollected(t *testing.T) {
	s := &Scenario{
		Name:        "wrong_expectations",
		Description: "every assertion is wrong",
		Inline:      kleinInline(),
		Assertions: []Assertion{
			{Type: AssertNrClasses, Count: 3},
			{Type: AssertEqual, Words: []string{"a", "b"}},
			{Type: AssertNotEqual, Words: []string{"a", "aa"}},
			{Type: AssertClassIndex, Word: "b", Index: 0},
			{Type: AssertRelations, Rules: []string{"aa->a"}},
			{Type: AssertOutcome, Expect: OutcomeIncomplete},
			{Type: AssertEventCount, Kind: string(race.EventWinner), Count: 2},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "Expected: 3 classes")
	assert.Contains(t, result.Errors[1], "different classes")
	assert.Contains(t, result.Errors[2], "same class")
	assert.Contains(t, result.Errors[3], "class 1")
	assert.Contains(t, result.Errors[4], "[aa -> a]")
	assert.Contains(t, result.Errors[5], "Expected: incomplete")
	assert.Contains(t, result.Errors[6], "1 recorded")
}

func TestRun_IncompleteIsAResult(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "braid_incomplete.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, OutcomeIncomplete, result.Outcome)
	assert.Empty(t, result.Winner)
	assert.Zero(t, result.NrClasses)
	require.Error(t, result.RunErr)
	assert.True(t, ir.IsIncompleteError(result.RunErr))
}

func TestRun_QuotientAssertionsNeedAWinner(t *testing.T) {
	s := &Scenario{
		Name:        "braid_queries",
		Description: "queries on an undecided congruence fail",
		Inline: &compiler.Source{
			Generators: []string{"a", "b"},
			Relations:  []compiler.Relation{compiler.Pair(compiler.TextWord("aba"), compiler.TextWord("bab"))},
		},
		Budget:     &BudgetSpec{MaxRules: 10, MaxCosets: 50, MaxClasses: 50},
		Assertions: []Assertion{{Type: AssertNrClasses, Count: 1}},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no strategy finished")
}

func TestRun_SingleStrategyWinner(t *testing.T) {
	for _, name := range congruence.Strategies {
		t.Run(name, func(t *testing.T) {
			s := &Scenario{
				Name:        "klein_" + name,
				Description: "one strategy alone",
				Inline:      kleinInline(),
				Strategies:  []string{name},
				Assertions: []Assertion{
					{Type: AssertWinner, Expect: name},
					{Type: AssertNrClasses, Count: 2},
				},
			}
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_BadWordIsAnError(t *testing.T) {
	s := &Scenario{
		Name:        "bad_word",
		Description: "scenario word outside the alphabet",
		Inline:      kleinInline(),
		Words:       []string{"abc"},
		Assertions:  []Assertion{{Type: AssertNrClasses, Count: 2}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "words")
}

func TestRun_InvalidInlinePresentation(t *testing.T) {
	s := &Scenario{
		Name:        "invalid",
		Description: "empty alphabet",
		Inline:      &compiler.Source{},
		Assertions:  []Assertion{{Type: AssertNrClasses, Count: 1}},
	}

	_, err := Run(s)
	require.Error(t, err)

	var verrs compiler.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, compiler.ErrNoGenerators, verrs[0].Code)
}

func TestRun_NameFallsBackToScenario(t *testing.T) {
	p, err := loadPresentation(&Scenario{Name: "fallback", Inline: &compilerSource})
	require.NoError(t, err)
	assert.Equal(t, "fallback", p.Name)
}

func TestFormatRules(t *testing.T) {
	a := ir.Alphabet{"x", "y"}
	rules := []ir.Rule{
		{LHS: ir.NewWord(0, 1), RHS: ir.NewWord(1)},
		{LHS: ir.NewWord(1, 1, 1), RHS: ir.NewWord(0)},
	}
	assert.Equal(t, []string{"xy -> y", "yyy -> x"}, FormatRules(a, rules))
}
