package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/semirace/internal/compiler"
	"github.com/roach88/semirace/internal/congruence"
	"github.com/roach88/semirace/internal/race"
	"github.com/roach88/semirace/internal/rws"
)

// Scenario defines a congruence conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Presentation is the path of a presentation file. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	Presentation string `yaml:"presentation,omitempty"`

	// Inline is an embedded presentation, used when Presentation is empty.
	Inline *compiler.Source `yaml:"inline,omitempty"`

	// Strategies restricts the race. Empty means every strategy.
	Strategies []string `yaml:"strategies,omitempty"`

	// Mode is "sequential" (default) or "parallel".
	Mode string `yaml:"mode,omitempty"`

	// Order is the Knuth-Bendix reduction order. Default: shortlex.
	Order string `yaml:"order,omitempty"`

	// Budget overrides fields of congruence.DefaultBudget.
	Budget *BudgetSpec `yaml:"budget,omitempty"`

	// Words are recorded with their class index in the result.
	Words []string `yaml:"words,omitempty"`

	// CrossCheck re-runs every strategy alone and requires all of them to
	// agree with the race on classes and relations.
	CrossCheck bool `yaml:"cross_check,omitempty"`

	// RunID is the fixed race run ID. Default: "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// BudgetSpec overrides budget fields. Zero fields keep the default.
type BudgetSpec struct {
	MaxRules         int           `yaml:"max_rules,omitempty"`
	MaxOverlapLength int           `yaml:"max_overlap_length,omitempty"`
	MaxCosets        int           `yaml:"max_cosets,omitempty"`
	MaxClasses       int           `yaml:"max_classes,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"`
}

// Apply returns b with every non-zero field of s replacing b's.
func (s *BudgetSpec) Apply(b congruence.Budget) congruence.Budget {
	if s == nil {
		return b
	}
	if s.MaxRules > 0 {
		b.MaxRules = s.MaxRules
	}
	if s.MaxOverlapLength > 0 {
		b.MaxOverlapLength = s.MaxOverlapLength
	}
	if s.MaxCosets > 0 {
		b.MaxCosets = s.MaxCosets
	}
	if s.MaxClasses > 0 {
		b.MaxClasses = s.MaxClasses
	}
	if s.Timeout > 0 {
		b.Timeout = s.Timeout
	}
	return b
}

// Assertion validates one property of a scenario run.
type Assertion struct {
	// Type selects the assertion; see the Assert* constants.
	Type string `yaml:"type"`

	// Expect is the expected outcome or winner.
	Expect string `yaml:"expect,omitempty"`

	// Count is the expected class or event count.
	Count int `yaml:"count,omitempty"`

	// Word and Index are used by class_index.
	Word  string `yaml:"word,omitempty"`
	Index int    `yaml:"index,omitempty"`

	// Words are used by equal and not_equal.
	Words []string `yaml:"words,omitempty"`

	// Rules are the expected relations, formatted "lhs -> rhs".
	Rules []string `yaml:"rules,omitempty"`

	// Kind is the event kind counted by event_count.
	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome    = "outcome"
	AssertWinner     = "winner"
	AssertNrClasses  = "nr_classes"
	AssertEqual      = "equal"
	AssertNotEqual   = "not_equal"
	AssertClassIndex = "class_index"
	AssertRelations  = "relations"
	AssertEventCount = "event_count"
)

// Outcome values reported in Result.Outcome.
const (
	OutcomeWon        = race.OutcomeWon
	OutcomeIncomplete = "incomplete"
)

// LoadScenario reads and parses a scenario YAML file. A relative
// Presentation path is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath is LoadScenario with an explicit base directory
// for relative presentation paths.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if p := scenario.Presentation; p != "" && !filepath.IsAbs(p) && basePath != "" {
		scenario.Presentation = filepath.Join(basePath, p)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml and .yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var out []*Scenario
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Presentation == "" && s.Inline == nil:
		return fmt.Errorf("presentation or inline is required")
	case s.Presentation != "" && s.Inline != nil:
		return fmt.Errorf("give either presentation or inline, not both")
	case s.Presentation != "":
		if _, err := os.Stat(s.Presentation); os.IsNotExist(err) {
			return fmt.Errorf("presentation file not found: %s", s.Presentation)
		}
	}

	for i, name := range s.Strategies {
		if !slices.Contains(congruence.Strategies, name) {
			return fmt.Errorf("strategies[%d]: unknown strategy %q", i, name)
		}
	}
	if s.Mode != "" {
		if _, err := race.ParseMode(s.Mode); err != nil {
			return fmt.Errorf("mode: %w", err)
		}
	}
	if s.Order != "" {
		if _, ok := rws.OrderByName(s.Order); !ok {
			return fmt.Errorf("order: unknown reduction order %q", s.Order)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutcome:
		if a.Expect != OutcomeWon && a.Expect != OutcomeIncomplete {
			return fmt.Errorf("assertions[%d]: expect must be %q or %q for outcome", index, OutcomeWon, OutcomeIncomplete)
		}
	case AssertWinner:
		if !slices.Contains(congruence.Strategies, a.Expect) {
			return fmt.Errorf("assertions[%d]: expect must name a strategy for winner", index)
		}
	case AssertNrClasses:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for nr_classes", index)
		}
	case AssertEqual:
		if len(a.Words) < 2 {
			return fmt.Errorf("assertions[%d]: at least two words are required for equal", index)
		}
	case AssertNotEqual:
		if len(a.Words) != 2 {
			return fmt.Errorf("assertions[%d]: exactly two words are required for not_equal", index)
		}
	case AssertClassIndex:
		if a.Word == "" {
			return fmt.Errorf("assertions[%d]: word is required for class_index", index)
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for class_index", index)
		}
	case AssertRelations:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for relations", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
