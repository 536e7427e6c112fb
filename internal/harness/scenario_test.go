package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/congruence"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ResolvesPresentationPath(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "klein.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "klein", s.Name)
	assert.Equal(t, filepath.Join("testdata", "presentations", "klein.yaml"), s.Presentation)
	assert.True(t, s.CrossCheck)
	assert.Equal(t, []string{"a", "b", "bab", "bbb"}, s.Words)
	require.Len(t, s.Assertions, 8)
	assert.Equal(t, AssertOutcome, s.Assertions[0].Type)
	assert.Equal(t, []string{"bab", "a", "aa", "bb"}, s.Assertions[2].Words)
}

func TestLoadScenario_Budget(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "braid_incomplete.yaml"))
	require.NoError(t, err)

	require.NotNil(t, s.Budget)
	assert.Equal(t, 10*time.Second, s.Budget.Timeout)

	b := s.Budget.Apply(congruence.DefaultBudget())
	assert.Equal(t, 20, b.MaxRules)
	assert.Equal(t, 200, b.MaxCosets)
	assert.Equal(t, 200, b.MaxClasses)
	assert.Zero(t, b.MaxOverlapLength)
}

func TestBudgetSpec_NilKeepsDefault(t *testing.T) {
	var s *BudgetSpec
	assert.Equal(t, congruence.DefaultBudget(), s.Apply(congruence.DefaultBudget()))
}

func TestLoadScenario_Inline(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "extra_pairs.yaml"))
	require.NoError(t, err)

	require.NotNil(t, s.Inline)
	assert.Empty(t, s.Presentation)
	assert.Equal(t, []string{"a", "b"}, s.Inline.Generators)
	assert.Len(t, s.Inline.Relations, 4)
	assert.Len(t, s.Inline.Extra, 1)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "typo.yaml", `
name: typo
description: "misspelled assertions"
inline:
  generators: [a]
  relations: [[aa, a]]
assertion:
  - type: nr_classes
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestValidateScenario(t *testing.T) {
	valid := func() Scenario {
		return Scenario{
			Name:        "ok",
			Description: "valid",
			Inline:      &compilerSource,
			Assertions:  []Assertion{{Type: AssertNrClasses, Count: 1}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		errMsg string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no presentation", func(s *Scenario) { s.Inline = nil }, "presentation or inline is required"},
		{"both presentations", func(s *Scenario) { s.Presentation = "x.yaml" }, "not both"},
		{"missing file", func(s *Scenario) { s.Inline = nil; s.Presentation = "/nonexistent/p.yaml" }, "presentation file not found"},
		{"unknown strategy", func(s *Scenario) { s.Strategies = []string{"guess"} }, "unknown strategy"},
		{"bad mode", func(s *Scenario) { s.Mode = "eventually" }, "mode"},
		{"bad order", func(s *Scenario) { s.Order = "lex" }, "unknown reduction order"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"assertion without type", func(s *Scenario) { s.Assertions = []Assertion{{}} }, "type is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions = []Assertion{{Type: "vibes"}} }, "unknown assertion type"},
		{"bad outcome", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertOutcome, Expect: "maybe"}} }, "expect must be"},
		{"bad winner", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertWinner, Expect: "oracle"}} }, "must name a strategy"},
		{"zero classes", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertNrClasses}} }, "count must be positive"},
		{"equal one word", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertEqual, Words: []string{"a"}}} }, "at least two words"},
		{"not_equal three words", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertNotEqual, Words: []string{"a", "b", "c"}}}
		}, "exactly two words"},
		{"class_index without word", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertClassIndex}} }, "word is required"},
		{"relations without rules", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertRelations}} }, "rules list is required"},
		{"event_count without kind", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertEventCount}} }, "kind is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := validateScenario(&s)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"braid_incomplete", "cyclic", "extra_pairs", "klein", "transformation"}, names)
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files")
}
