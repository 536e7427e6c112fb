package harness

import "github.com/roach88/semirace/internal/race"

// WordClass is a scenario word with its class index.
type WordClass struct {
	Word  string `json:"word"`
	Index int    `json:"index"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Outcome is OutcomeWon or OutcomeIncomplete.
	Outcome string `json:"outcome"`

	// Winner names the strategy that decided the congruence.
	Winner string `json:"winner,omitempty"`

	// NrClasses, Classes and Relations describe the quotient. They are
	// empty when Outcome is OutcomeIncomplete.
	NrClasses int         `json:"nr_classes,omitempty"`
	Classes   []WordClass `json:"classes,omitempty"`
	Relations []string    `json:"relations,omitempty"`

	// Events are the race lifecycle events in seq order.
	Events []race.Event `json:"events"`

	// Errors contains assertion failures and cross-check mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunErr is the Incomplete error of a race without a winner.
	RunErr error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Events: []race.Event{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
