package harness

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/zeitgeist/internal/event"
)

// Snapshot is the golden form of a scenario run.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Batch        BatchReport
	Checks       []CheckResult
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization.
func (s *Snapshot) toCanonicalMap() map[string]any {
	checks := make([]any, len(s.Checks))
	for i, c := range s.Checks {
		m := map[string]any{
			"type":   c.Type,
			"output": c.Output,
		}
		if c.Name != "" {
			m["name"] = c.Name
		}
		checks[i] = m
	}

	return map[string]any{
		"scenario": s.ScenarioName,
		"batch": map[string]any{
			"token":      s.Batch.Token,
			"inserted":   s.Batch.Inserted,
			"duplicates": s.Batch.Duplicates,
		},
		"checks": checks,
	}
}

// Marshal renders the snapshot as canonical JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return event.MarshalCanonical(s.toCanonicalMap())
}

// GoldenPath returns where the snapshot of the named scenario loaded from
// scenarioFile lives: testdata/scenarios/x.yaml maps to
// testdata/golden/x.golden.
func GoldenPath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(filepath.Dir(scenarioFile)), "golden", name+".golden")
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file at testdata/golden/{scenario.Name}.golden. Check failures
// fail the test as well.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Batch:        result.Batch,
		Checks:       result.Checks,
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
