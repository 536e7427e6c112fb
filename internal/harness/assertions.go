package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/semirace/internal/congruence"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/store"
)

// AssertionContext provides what assertions need beyond the Result.
type AssertionContext struct {
	Ctx        context.Context
	Congruence *congruence.Congruence
	Alphabet   ir.Alphabet
	Store      *store.Store
	RunID      string
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Outcome  string // Race outcome for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Outcome != "" {
		fmt.Fprintf(&buf, "  Race outcome: %s\n", e.Outcome)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertOutcome:
		return assertOutcome(result, a)
	case AssertWinner:
		return assertWinner(result, a)
	case AssertEventCount:
		return assertEventCount(result, a, actx)
	}

	// The rest query the quotient.
	if result.Outcome != OutcomeWon {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a decided congruence",
			Actual:   fmt.Sprintf("no strategy finished: %v", result.RunErr),
			Outcome:  result.Outcome,
		}
	}
	switch a.Type {
	case AssertNrClasses:
		return assertNrClasses(result, a)
	case AssertEqual:
		return assertEqual(a, actx)
	case AssertNotEqual:
		return assertNotEqual(a, actx)
	case AssertClassIndex:
		return assertClassIndex(a, actx)
	case AssertRelations:
		return assertRelations(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertOutcome(result *Result, a Assertion) error {
	if result.Outcome == a.Expect {
		return nil
	}
	actual := result.Outcome
	if result.RunErr != nil {
		actual = fmt.Sprintf("%s (%v)", result.Outcome, result.RunErr)
	}
	return &AssertionError{Type: AssertOutcome, Expected: a.Expect, Actual: actual}
}

func assertWinner(result *Result, a Assertion) error {
	if result.Winner == a.Expect {
		return nil
	}
	actual := result.Winner
	if actual == "" {
		actual = "no winner"
	}
	return &AssertionError{Type: AssertWinner, Expected: a.Expect, Actual: actual, Outcome: result.Outcome}
}

func assertNrClasses(result *Result, a Assertion) error {
	if result.NrClasses == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertNrClasses,
		Expected: fmt.Sprintf("%d classes", a.Count),
		Actual:   fmt.Sprintf("%d classes", result.NrClasses),
	}
}

// assertEqual checks that every word is in the class of the first.
func assertEqual(a Assertion, actx *AssertionContext) error {
	words, err := parseWords(actx.Alphabet, a.Words)
	if err != nil {
		return err
	}
	for i := 1; i < len(words); i++ {
		eq, err := actx.Congruence.Equal(actx.Ctx, words[0], words[i])
		if err != nil {
			return err
		}
		if !eq {
			return &AssertionError{
				Type:     AssertEqual,
				Expected: fmt.Sprintf("%s = %s", a.Words[0], a.Words[i]),
				Actual:   "different classes",
			}
		}
	}
	return nil
}

func assertNotEqual(a Assertion, actx *AssertionContext) error {
	words, err := parseWords(actx.Alphabet, a.Words)
	if err != nil {
		return err
	}
	eq, err := actx.Congruence.Equal(actx.Ctx, words[0], words[1])
	if err != nil {
		return err
	}
	if eq {
		return &AssertionError{
			Type:     AssertNotEqual,
			Expected: fmt.Sprintf("%s != %s", a.Words[0], a.Words[1]),
			Actual:   "same class",
		}
	}
	return nil
}

func assertClassIndex(a Assertion, actx *AssertionContext) error {
	w, err := actx.Alphabet.Parse(a.Word)
	if err != nil {
		return err
	}
	idx, err := actx.Congruence.ClassIndex(actx.Ctx, w)
	if err != nil {
		return err
	}
	if idx != a.Index {
		return &AssertionError{
			Type:     AssertClassIndex,
			Expected: fmt.Sprintf("%s in class %d", a.Word, a.Index),
			Actual:   fmt.Sprintf("class %d", idx),
		}
	}
	return nil
}

func assertRelations(result *Result, a Assertion) error {
	want := make([]string, len(a.Rules))
	for i, r := range a.Rules {
		want[i] = normalizeRule(r)
	}
	if slices.Equal(want, result.Relations) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRelations,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", result.Relations),
	}
}

// assertEventCount counts events of a kind in the store, which also
// checks that the recorder saw the whole race.
func assertEventCount(result *Result, a Assertion, actx *AssertionContext) error {
	events, err := actx.Store.ReadEvents(actx.Ctx, actx.RunID)
	if err != nil {
		return err
	}
	count := 0
	for _, e := range events {
		if string(e.Kind) == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d recorded", count),
			Outcome:  result.Outcome,
		}
	}
	return nil
}

func parseWords(alphabet ir.Alphabet, ss []string) ([]ir.Word, error) {
	out := make([]ir.Word, len(ss))
	for i, s := range ss {
		w, err := alphabet.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// normalizeRule accepts "lhs->rhs" and "lhs -> rhs".
func normalizeRule(r string) string {
	lhs, rhs, ok := strings.Cut(r, "->")
	if !ok {
		return strings.TrimSpace(r)
	}
	return strings.TrimSpace(lhs) + " -> " + strings.TrimSpace(rhs)
}
