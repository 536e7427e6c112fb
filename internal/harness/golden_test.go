package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every scenario under testdata/scenarios must pass and match its golden
// snapshot. To regenerate: go test ./internal/harness -update
func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_LeavesOutWinnerAndEvents(t *testing.T) {
	r := NewResult()
	r.Outcome = OutcomeWon
	r.Winner = "todd-coxeter"
	r.NrClasses = 1
	r.Relations = []string{"aa -> a"}
	r.Classes = []WordClass{{Word: "aaa", Index: 0}}

	data, err := NewSnapshot("unary", r).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"classes":[{"index":0,"word":"aaa"}],"nr_classes":1,"outcome":"won","relations":["aa -> a"],"scenario_name":"unary"}`,
		string(data))
}

func TestSnapshot_Incomplete(t *testing.T) {
	r := NewResult()
	r.Outcome = OutcomeIncomplete

	data, err := NewSnapshot("stuck", r).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, `{"outcome":"incomplete","scenario_name":"stuck"}`, string(data))
}

func TestSnapshot_NoWordsIsEmptyList(t *testing.T) {
	r := NewResult()
	r.Outcome = OutcomeWon
	r.NrClasses = 1
	r.Relations = []string{"aa -> a"}

	data, err := NewSnapshot("bare", r).MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"classes":[]`)
}
