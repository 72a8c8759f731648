package harness

// BatchReport records how the scenario's setup batch was applied.
type BatchReport struct {
	Token      string `json:"token"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
}

// CheckResult is the answer one check produced.
type CheckResult struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	// Output is a canonical value tree: []any of map[string]any for
	// rankings and events, int64 for durations.
	Output any `json:"output"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every check matched its expectation.
	Pass bool `json:"pass"`

	Batch BatchReport `json:"batch"`

	// Checks holds one entry per scenario check, in order.
	Checks []CheckResult `json:"checks"`

	// Errors contains check failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Checks: []CheckResult{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
