package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Event is a recorded occurrence of an actor doing something to one or more
// subjects at a point in time.
type Event struct {
	ID             int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Timestamp      int64     `json:"timestamp" yaml:"timestamp"` // ms since epoch
	Interpretation string    `json:"interpretation,omitempty" yaml:"interpretation,omitempty"`
	Manifestation  string    `json:"manifestation,omitempty" yaml:"manifestation,omitempty"`
	Actor          string    `json:"actor,omitempty" yaml:"actor,omitempty"`
	Origin         string    `json:"origin,omitempty" yaml:"origin,omitempty"`
	Payload        []byte    `json:"payload,omitempty" yaml:"payload,omitempty"`
	Subjects       []Subject `json:"subjects" yaml:"subjects"`
}

// Subject is a resource referenced by an event, identified by URI.
type Subject struct {
	URI            string   `json:"uri" yaml:"uri"`
	CurrentURI     string   `json:"current_uri,omitempty" yaml:"current_uri,omitempty"`
	Interpretation string   `json:"interpretation,omitempty" yaml:"interpretation,omitempty"`
	Manifestation  string   `json:"manifestation,omitempty" yaml:"manifestation,omitempty"`
	Origin         string   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Mimetype       string   `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
	Text           string   `json:"text,omitempty" yaml:"text,omitempty"`
	Storage        string   `json:"storage,omitempty" yaml:"storage,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ErrNoSubjects is returned by Validate for an event without subjects.
var ErrNoSubjects = errors.New("event has no subjects")

// Validate checks the structural requirements an event must meet before it
// can be stored.
func (e Event) Validate() error {
	if e.Timestamp < 0 {
		return fmt.Errorf("negative timestamp %d", e.Timestamp)
	}
	if len(e.Subjects) == 0 {
		return ErrNoSubjects
	}
	for i, s := range e.Subjects {
		if s.URI == "" {
			return fmt.Errorf("subject[%d]: empty uri", i)
		}
		for j, tag := range s.Tags {
			if strings.TrimSpace(tag) == "" {
				return fmt.Errorf("subject[%d]: tag[%d] is blank", i, j)
			}
		}
	}
	return nil
}

// Normalized returns a copy of e with defaults filled in. A subject without
// a current URI is taken to still live at its original URI. Tags are
// trimmed, sorted and deduplicated.
func (e Event) Normalized() Event {
	out := e
	out.Subjects = make([]Subject, len(e.Subjects))
	for i, s := range e.Subjects {
		if s.CurrentURI == "" {
			s.CurrentURI = s.URI
		}
		if len(s.Tags) > 0 {
			s.Tags = normalizeTags(s.Tags)
		}
		out.Subjects[i] = s
	}
	return out
}

func normalizeTags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SubjectURIs returns the URIs of all subjects in order.
func (e Event) SubjectURIs() []string {
	uris := make([]string, len(e.Subjects))
	for i, s := range e.Subjects {
		uris[i] = s.URI
	}
	return uris
}

// TimeRange is a half-open interval [Start, End) in milliseconds.
// An End of zero means the range is unbounded above.
type TimeRange struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end,omitempty" yaml:"end,omitempty"`
}

// Always returns the range covering every timestamp.
func Always() TimeRange {
	return TimeRange{}
}

// Bounded reports whether the range has an upper bound.
func (r TimeRange) Bounded() bool {
	return r.End > 0
}

// Contains reports whether ts falls inside the range.
func (r TimeRange) Contains(ts int64) bool {
	if ts < r.Start {
		return false
	}
	return !r.Bounded() || ts < r.End
}

func (r TimeRange) String() string {
	if !r.Bounded() {
		return fmt.Sprintf("[%d, +inf)", r.Start)
	}
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Order selects the timestamp ordering of query results.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
)

func (o Order) String() string {
	if o == OrderDescending {
		return "desc"
	}
	return "asc"
}

// ParseOrder accepts "asc" or "desc" (case-insensitive).
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return OrderAscending, nil
	case "desc", "descending":
		return OrderDescending, nil
	default:
		return OrderAscending, fmt.Errorf("unknown order %q", s)
	}
}

// StorageState filters results by the reachability of subject storage.
type StorageState int

const (
	StorageAny StorageState = iota
	StorageAvailable
	StorageUnavailable
)

func (s StorageState) String() string {
	switch s {
	case StorageAvailable:
		return "available"
	case StorageUnavailable:
		return "unavailable"
	default:
		return "any"
	}
}
