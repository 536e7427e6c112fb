package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/compiler"
)

func writeBraid(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "braid.yaml", `name: braid
generators: [a, b]
relations:
  - [aba, bab]
`)
}

func TestComplete_Text(t *testing.T) {
	out, err := execute(t, "complete", "testdata/klein.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ klein complete (shortlex,")
	assert.Contains(t, out, "  aa -> a\n")
	assert.Contains(t, out, "  ab -> b\n")
	assert.Contains(t, out, "  ba -> b\n")
}

func TestComplete_InfiniteWithFiniteSystem(t *testing.T) {
	out, err := execute(t, "--format", "json", "complete", "testdata/free_commutative.yaml")
	require.NoError(t, err)

	var result CompleteResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "free_commutative", result.Presentation)
	assert.Equal(t, "shortlex", result.Order)
	assert.Equal(t, []string{"ba -> ab"}, result.Rules)
	assert.Zero(t, result.Stats.Pending)
}

func TestComplete_WritesPresentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "klein-complete.yaml")
	_, err := execute(t, "complete", "testdata/klein.yaml", "-o", path)
	require.NoError(t, err)

	p, err := compiler.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "klein-complete", p.Name)
	assert.Equal(t, []string{"a", "b"}, []string(p.Alphabet))
	assert.GreaterOrEqual(t, len(p.Relations), 4)

	// The complete system presents the same semigroup
	out, err := execute(t, "solve", path, "bab", "--strategies", "todd-coxeter")
	require.NoError(t, err)
	assert.Contains(t, out, "Classes: 2")
	assert.Contains(t, out, "  bab -> 0\n")
}

func TestComplete_RuleCap(t *testing.T) {
	out, err := execute(t, "complete", writeBraid(t), "--max-rules", "20")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
}

func TestComplete_Timeout(t *testing.T) {
	out, err := execute(t, "complete", writeBraid(t), "--max-rules", "0", "--timeout", "50ms")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
	assert.Contains(t, out, "knuth-bendix timed_out")
}

func TestComplete_UnknownOrder(t *testing.T) {
	_, err := execute(t, "complete", "testdata/klein.yaml", "--order", "wreath")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReduce_Text(t *testing.T) {
	out, err := execute(t, "reduce", "testdata/klein.yaml", "abab", "bbb", "a")
	require.NoError(t, err)
	assert.Equal(t, "abab -> a\nbbb -> b\na -> a\n", out)
}

func TestReduce_JSON(t *testing.T) {
	for _, order := range []string{"shortlex", "recursive-path"} {
		t.Run(order, func(t *testing.T) {
			out, err := execute(t, "--format", "json", "reduce", "testdata/free_commutative.yaml",
				"baba", "--order", order)
			require.NoError(t, err)

			var result ReduceResult
			decodeResponse(t, out, &result)
			assert.Equal(t, order, result.Order)
			require.Len(t, result.Words, 1)
			assert.Equal(t, "baba", result.Words[0].Word)
			assert.Equal(t, "aabb", result.Words[0].NormalForm)
		})
	}
}

func TestReduce_BadWordBeforeCompleting(t *testing.T) {
	// The word is rejected before completion would run forever
	out, err := execute(t, "reduce", writeBraid(t), "abx", "--max-rules", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}
