package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/zeitgeist/internal/config"
	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/filter"
	"github.com/roach88/zeitgeist/internal/ingest"
	"github.com/roach88/zeitgeist/internal/relevance"
)

// Scenario is a journal fixture plus the checks to run against it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now pins the relevance engine's clock, in ms since epoch.
	Now int64 `yaml:"now"`

	// Events are inserted in order, in one batch.
	Events []event.Event `yaml:"events"`

	// Focus data is written in the same batch, after the events.
	Focus FocusSetup `yaml:"focus,omitempty"`

	// Checks query the journal once everything is written.
	Checks []Check `yaml:"checks"`
}

// FocusSetup holds the focus records of a scenario.
type FocusSetup struct {
	Switches []relevance.FocusSwitch `yaml:"switches,omitempty"`
	Changes  []ingest.FocusChange    `yaml:"changes,omitempty"`
}

// Check is one query and its expected answer.
type Check struct {
	// Type selects the query; see the Check* constants.
	Type string `yaml:"type"`

	// Name labels the check in failures and snapshots.
	Name string `yaml:"name,omitempty"`

	// URI is the anchor of related, related_by_tags, focus_related and
	// duration checks.
	URI string `yaml:"uri,omitempty"`

	// From and To bound the time range; To of zero is unbounded.
	From int64 `yaml:"from,omitempty"`
	To   int64 `yaml:"to,omitempty"`

	// Filter holds field=term filters for find checks, AND-ed together.
	Filter []string `yaml:"filter,omitempty"`

	// Order is "asc" (default) or "desc" for find checks.
	Order string `yaml:"order,omitempty"`

	// Horizon and Radius tune related checks; zero takes the defaults.
	Horizon config.Duration `yaml:"horizon,omitempty"`
	Radius  config.Duration `yaml:"radius,omitempty"`

	Limit int `yaml:"limit,omitempty"`

	// Expect is the ordered list of URIs or tags the check must return.
	Expect []string `yaml:"expect,omitempty"`

	// ExpectTimestamps is the ordered list of event timestamps a find
	// check must return.
	ExpectTimestamps []int64 `yaml:"expect_timestamps,omitempty"`

	// ExpectDuration is the focused time a duration check must report.
	ExpectDuration *int64 `yaml:"expect_duration,omitempty"`
}

// Check type constants.
const (
	CheckFind          = "find"
	CheckRelated       = "related"
	CheckRelatedByTags = "related_by_tags"
	CheckFocusRelated  = "focus_related"
	CheckMostUsedTags  = "most_used_tags"
	CheckDuration      = "duration"
)

// Range returns the check's time range.
func (c Check) Range() event.TimeRange {
	return event.TimeRange{Start: c.From, End: c.To}
}

// Label is Name, or the type and index when Name is empty.
func (c Check) Label(index int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("checks[%d] (%s)", index, c.Type)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Now < 0 {
		return fmt.Errorf("now must not be negative")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	for i, ev := range s.Events {
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	for i, c := range s.Checks {
		if err := validateCheck(i, c); err != nil {
			return err
		}
	}
	return nil
}

// validateCheck validates a single check based on its type.
func validateCheck(index int, c Check) error {
	if c.Limit < 0 {
		return fmt.Errorf("checks[%d]: limit must not be negative", index)
	}
	if c.To != 0 && c.To <= c.From {
		return fmt.Errorf("checks[%d]: empty range [%d, %d)", index, c.From, c.To)
	}

	switch c.Type {
	case CheckFind:
		if _, err := event.ParseOrder(c.Order); err != nil {
			return fmt.Errorf("checks[%d]: %w", index, err)
		}
		for _, f := range c.Filter {
			if _, err := filter.ParseAssignment(f); err != nil {
				return fmt.Errorf("checks[%d]: %w", index, err)
			}
		}
	case CheckRelated, CheckRelatedByTags, CheckFocusRelated:
		if c.URI == "" {
			return fmt.Errorf("checks[%d]: %s requires 'uri' field", index, c.Type)
		}
	case CheckDuration:
		if c.URI == "" {
			return fmt.Errorf("checks[%d]: duration requires 'uri' field", index)
		}
	case CheckMostUsedTags:
	case "":
		return fmt.Errorf("checks[%d]: type is required", index)
	default:
		return fmt.Errorf("checks[%d]: unknown check type %q", index, c.Type)
	}

	if c.Type != CheckFind && len(c.ExpectTimestamps) > 0 {
		return fmt.Errorf("checks[%d]: expect_timestamps only applies to find", index)
	}
	if c.Type != CheckDuration && c.ExpectDuration != nil {
		return fmt.Errorf("checks[%d]: expect_duration only applies to duration", index)
	}
	return nil
}
