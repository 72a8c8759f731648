package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/zeitgeist/internal/config"
)

// isolate shields a test from the caller's environment and working
// directory and returns a fresh database path.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{config.EnvDatabase, config.EnvLogLevel, config.EnvMaintenanceSchedule} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	// Equivalent of t.Chdir (Go 1.24+) for older toolchains.
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	return filepath.Join(dir, "journal.sqlite")
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeData unmarshals the data member of a JSON success envelope.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const editorBatch = `{
  "source": "editor",
  "events": [
    {
      "timestamp": 100,
      "actor": "app://editor.desktop",
      "subjects": [{"uri": "file:///home/user/a.txt", "tags": ["work"]}]
    },
    {
      "timestamp": 150,
      "actor": "app://editor.desktop",
      "subjects": [{"uri": "file:///home/user/b.txt", "tags": ["work", "draft"]}]
    },
    {
      "timestamp": 300,
      "actor": "app://browser.desktop",
      "subjects": [{"uri": "http://example.com/", "tags": ["work"]}]
    }
  ]
}
`

// seed inserts editorBatch into db.
func seed(t *testing.T, db string) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "editor.json", editorBatch)
	_, _, err := execute(t, "--db", db, "insert", path)
	require.NoError(t, err)
}
