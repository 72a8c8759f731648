package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relatedScenario = `name: related_pair
description: two documents used a second apart
now: 5000
events:
  - timestamp: 1000
    subjects: [{uri: "doc://a"}]
  - timestamp: 2000
    subjects: [{uri: "doc://b"}]
checks:
  - type: related
    uri: "doc://a"
    radius: 1h
    expect: ["doc://b"]
`

const failingScenario = `name: wrong_pair
description: expects a neighbour that never appears
now: 5000
events:
  - timestamp: 1000
    subjects: [{uri: "doc://a"}]
checks:
  - type: related
    uri: "doc://a"
    expect: ["doc://z"]
`

func TestTestCommand_ShippedScenarios(t *testing.T) {
	out, _, err := execute(t, "test", "../harness/testdata/scenarios")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ shared_work_tag")
	assert.Contains(t, out, "✓ focus_session")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", "--filter", "focus_*", "../harness/testdata/scenarios")
	require.NoError(t, err)

	var res TestResult
	decodeData(t, out, &res)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "focus_session", res.Scenarios[0].Name)
	assert.True(t, res.Scenarios[0].Pass)
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scenarios/related_pair.yaml", relatedScenario)
	golden := filepath.Join(dir, "golden", "related_pair.golden")

	_, _, err := execute(t, "test", "--update", file)
	require.NoError(t, err)
	require.FileExists(t, golden)

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.True(t, json.Valid(data), string(data))

	_, _, err = execute(t, "test", file)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"stale":true}`), 0o644))
	out, _, err := execute(t, "test", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scenarios/related_pair.yaml", relatedScenario)
	writeFile(t, dir, "scenarios/wrong_pair.yml", failingScenario)
	writeFile(t, dir, "scenarios/notes.txt", "not a scenario")

	out, _, err := execute(t, "--format", "json", "test", filepath.Join(dir, "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var res TestResult
	decodeData(t, out, &res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 1, res.Failed)
	for _, s := range res.Scenarios {
		if s.Name == "wrong_pair" {
			assert.False(t, s.Pass)
			require.NotEmpty(t, s.Errors)
			assert.Contains(t, s.Errors[0], "doc://z")
		}
	}
}

func TestTestCommand_InvalidScenario(t *testing.T) {
	file := writeFile(t, t.TempDir(), "broken.yaml", "name: broken\n")

	out, _, err := execute(t, "test", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_MissingPath(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, "test", "--filter", "[", ".")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
