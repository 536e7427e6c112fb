package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/semirace/internal/ir"
)

// Snapshot is the strategy-independent part of a Result. It leaves out
// the winner and the event stream, which vary with scheduling.
type Snapshot struct {
	ScenarioName string      `json:"scenario_name"`
	Outcome      string      `json:"outcome"`
	NrClasses    int         `json:"nr_classes,omitempty"`
	Classes      []WordClass `json:"classes,omitempty"`
	Relations    []string    `json:"relations,omitempty"`
}

// NewSnapshot captures result under the given scenario name.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Outcome:      result.Outcome,
		NrClasses:    result.NrClasses,
		Classes:      result.Classes,
		Relations:    result.Relations,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical
// JSON serialization, which only handles IR types and primitives.
func (s Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario_name": s.ScenarioName,
		"outcome":       s.Outcome,
	}
	if s.Outcome != OutcomeWon {
		return m
	}
	m["nr_classes"] = s.NrClasses

	classes := make([]any, len(s.Classes))
	for i, c := range s.Classes {
		classes[i] = map[string]any{"word": c.Word, "index": c.Index}
	}
	m["classes"] = classes

	rels := make([]any, len(s.Relations))
	for i, r := range s.Relations {
		rels[i] = r
	}
	m["relations"] = rels
	return m
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can make further assertions. Test failure
// (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
