package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/compiler"
)

func TestValidate_Valid(t *testing.T) {
	for _, path := range []string{"testdata/klein.yaml", "testdata/klein.cue", "testdata/free_commutative.yaml"} {
		t.Run(path, func(t *testing.T) {
			out, err := execute(t, "validate", path)
			require.NoError(t, err)
			assert.Contains(t, out, "✓ Presentation valid")
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	out, err := execute(t, "validate", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "line 4\n  E112: relations[0][1]:")
	assert.Contains(t, out, "line 5\n  E111: relations[1][1]:")
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/invalid.yaml")
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrUnknownGenerator, resp.Error.Code)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, compiler.ErrEmptyWord, result.Errors[1].Code)
	assert.Equal(t, 5, result.Errors[1].Line)
}

func TestValidate_JSONValid(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/klein.yaml")
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
}

func TestValidate_SyntaxErrorHasLine(t *testing.T) {
	out, err := execute(t, "validate", "testdata/broken.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "line ")
	assert.Contains(t, out, ErrCodeLoad)
}

func TestValidate_MissingFile(t *testing.T) {
	out, err := execute(t, "validate", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestValidate_UnknownYAMLField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "typo.yaml", `generators: [a]
relation:
  - [aa, a]
`)
	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E002: yaml:")
}
