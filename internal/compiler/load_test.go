package compiler

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/ir"
)

func TestLoadFileFormatsAgree(t *testing.T) {
	fromYAML, err := LoadFile(filepath.Join("testdata", "klein.yaml"))
	require.NoError(t, err)
	fromCUE, err := LoadFile(filepath.Join("testdata", "klein.cue"))
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromCUE)
	assert.Equal(t, ir.MustPresentationHash(*fromYAML), ir.MustPresentationHash(*fromCUE))
	require.NoError(t, fromYAML.Validate())
}

func TestLoadFileNameFromPath(t *testing.T) {
	p, err := LoadFile(filepath.Join("testdata", "transformation.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "transformation", p.Name)
	assert.Equal(t, 2, p.NrGenerators())
	assert.Len(t, p.Relations, 4)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDecodeFileKeepsInvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("generators: [a]\nrelations:\n  - [b, a]\n"), 0644))

	src, err := DecodeFile(path)
	require.NoError(t, err)

	errs := Validate(src)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownGenerator, errs[0].Code)
	assert.Equal(t, 3, errs[0].Line)
}
