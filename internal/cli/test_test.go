package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// kleinScenario returns a passing scenario over testdata/klein.yaml.
func kleinScenario(t *testing.T, name string) string {
	t.Helper()
	presentation, err := filepath.Abs("testdata/klein.yaml")
	require.NoError(t, err)
	return `name: ` + name + `
description: "Klein presentation has two classes"
presentation: ` + presentation + `
words: [a, bab]
assertions:
  - type: outcome
    expect: won
  - type: nr_classes
    count: 2
`
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Scenarios)
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "klein.yaml", kleinScenario(t, "klein"))

	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ klein\n")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "klein.yaml", kleinScenario(t, "klein")+`  - type: class_index
    word: bab
    index: 1
`)
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ broken.yaml\n  Load error:")
	assert.Contains(t, out, "✗ klein\n  assertions[2]:")
	assert.Contains(t, out, "Test Summary: 0 passed, 2 failed, 2 total")
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "klein.yaml", kleinScenario(t, "klein"))

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ klein (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "klein.golden"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"classes":[{"index":0,"word":"a"},{"index":0,"word":"bab"}],"nr_classes":2,"outcome":"won",`+
			`"relations":["aa -> a","ab -> b","ba -> b","bb -> a"],"scenario_name":"klein"}`,
		string(golden))

	out, err = execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ klein\n")

	writeFile(t, filepath.Join(dir, "golden"), "klein.golden", `{"outcome":"incomplete","scenario_name":"klein"}`)
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "Golden file mismatch")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "klein-a.yaml", kleinScenario(t, "klein-a"))
	writeFile(t, dir, "klein-b.yaml", kleinScenario(t, "klein-b"))

	out, err := execute(t, "--format", "json", "test", dir, "--filter", "*-b")
	require.NoError(t, err)

	var result TestResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "klein-b", result.Scenarios[0].Name)
	assert.Equal(t, "won", result.Scenarios[0].Outcome)
	assert.NotEmpty(t, result.Scenarios[0].Winner)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, "test", "../harness/testdata/scenarios", "--golden", "../harness/testdata/golden")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ klein\n")
	assert.Contains(t, out, "✓ braid_incomplete\n")
	assert.Contains(t, out, "0 failed")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "")
	writeFile(t, dir, "a.yml", "")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeFile(t, filepath.Join(dir, "golden"), "nested.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("g", "klein.golden"), goldenFilePath("g", filepath.Join("s", "klein.yaml")))
	assert.Equal(t, filepath.Join("g", "x.golden"), goldenFilePath("g", "x.yml"))
}
