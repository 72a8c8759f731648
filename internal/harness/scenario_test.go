package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: one event
now: 100
events:
  - timestamp: 10
    subjects:
      - uri: doc://a
checks:
  - type: find
`

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "focus_session.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "focus_session", s.Name)
	assert.Equal(t, int64(10000), s.Now)
	assert.Len(t, s.Events, 3)
	assert.Equal(t, []string{"work", "q3"}, s.Events[0].Subjects[0].Tags)
	assert.Len(t, s.Focus.Switches, 3)
	require.Len(t, s.Focus.Changes, 5)
	assert.Equal(t, "", s.Focus.Changes[4].Subject)
	require.Len(t, s.Checks, 6)
	assert.Equal(t, CheckFocusRelated, s.Checks[0].Type)
	require.NotNil(t, s.Checks[1].ExpectDuration)
	assert.Equal(t, int64(1200), *s.Checks[1].ExpectDuration)
	assert.Equal(t, time.Second, time.Duration(s.Checks[2].Radius))
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Empty(t, s.Focus.Switches)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "chekcs: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nchecks: [{type: find}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nchecks: [{type: find}]\n",
			want: "description is required",
		},
		{
			name: "no checks",
			yaml: "name: n\ndescription: d\n",
			want: "checks list is required",
		},
		{
			name: "negative now",
			yaml: "name: n\ndescription: d\nnow: -1\nchecks: [{type: find}]\n",
			want: "now must not be negative",
		},
		{
			name: "event without subjects",
			yaml: "name: n\ndescription: d\nevents: [{timestamp: 1, subjects: []}]\nchecks: [{type: find}]\n",
			want: "events[0]",
		},
		{
			name: "missing type",
			yaml: "name: n\ndescription: d\nchecks: [{uri: x}]\n",
			want: "type is required",
		},
		{
			name: "unknown type",
			yaml: "name: n\ndescription: d\nchecks: [{type: guess}]\n",
			want: `unknown check type "guess"`,
		},
		{
			name: "related without uri",
			yaml: "name: n\ndescription: d\nchecks: [{type: related}]\n",
			want: "related requires 'uri' field",
		},
		{
			name: "duration without uri",
			yaml: "name: n\ndescription: d\nchecks: [{type: duration}]\n",
			want: "duration requires 'uri' field",
		},
		{
			name: "bad order",
			yaml: "name: n\ndescription: d\nchecks: [{type: find, order: sideways}]\n",
			want: "unknown order",
		},
		{
			name: "bad filter",
			yaml: "name: n\ndescription: d\nchecks: [{type: find, filter: [colour=red]}]\n",
			want: "unknown filter field",
		},
		{
			name: "empty range",
			yaml: "name: n\ndescription: d\nchecks: [{type: find, from: 10, to: 10}]\n",
			want: "empty range",
		},
		{
			name: "negative limit",
			yaml: "name: n\ndescription: d\nchecks: [{type: find, limit: -1}]\n",
			want: "limit must not be negative",
		},
		{
			name: "timestamps on related",
			yaml: "name: n\ndescription: d\nchecks: [{type: related, uri: x, expect_timestamps: [1]}]\n",
			want: "expect_timestamps only applies to find",
		},
		{
			name: "duration on find",
			yaml: "name: n\ndescription: d\nchecks: [{type: find, expect_duration: 1}]\n",
			want: "expect_duration only applies to duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheck_Label(t *testing.T) {
	assert.Equal(t, "named", Check{Type: CheckFind, Name: "named"}.Label(3))
	assert.Equal(t, "checks[3] (find)", Check{Type: CheckFind}.Label(3))
}

func TestLoadScenario_AllShippedScenariosParse(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		_, err := os.Stat(p)
		require.NoError(t, err)
		_, err = LoadScenario(p)
		assert.NoError(t, err, p)
	}
}
