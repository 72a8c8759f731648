// Package importer reads event batch files and validates them against an
// embedded CUE schema before they reach the store.
//
// A batch file is JSON, YAML or CUE with the shape
//
//	source: "editor"
//	events: [{
//		timestamp: 1700000000000
//		actor:     "app://editor.desktop"
//		subjects: [{uri: "file:///home/user/notes.txt", tags: ["work"]}]
//	}]
//
// The payload field is text and is stored as its UTF-8 bytes.
package importer

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/yaml"

	"github.com/roach88/zeitgeist/internal/event"
)

//go:embed schema.cue
var schemaSource string

// Error codes.
const (
	ErrCodeNotFound    = "E201" // File missing or unreadable
	ErrCodeParse       = "E202" // Malformed JSON/YAML/CUE
	ErrCodeSchema      = "E203" // Does not satisfy #Batch
	ErrCodeUnsupported = "E204" // Unknown file extension
)

// LoadError describes why a batch file was rejected.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the LoadError code of err, or "".
func CodeOf(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// Batch is a validated set of events from one file.
type Batch struct {
	Path   string
	Source string
	Events []event.Event
}

type record struct {
	Timestamp      int64           `json:"timestamp"`
	Interpretation string          `json:"interpretation"`
	Manifestation  string          `json:"manifestation"`
	Actor          string          `json:"actor"`
	Origin         string          `json:"origin"`
	Payload        string          `json:"payload"`
	Subjects       []event.Subject `json:"subjects"`
}

type batchFile struct {
	Source string   `json:"source"`
	Events []record `json:"events"`
}

// Load reads and validates one batch file. The source defaults to the file
// name without its extension.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse validates data as a batch; the extension of name selects the format.
func Parse(name string, data []byte) (*Batch, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile batch schema: %w", err)
	}

	value, err := build(ctx, name, data)
	if err != nil {
		return nil, err
	}

	unified := schema.LookupPath(cue.ParsePath("#Batch")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	var raw batchFile
	if err := unified.Decode(&raw); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	b := &Batch{Path: name, Source: raw.Source, Events: make([]event.Event, len(raw.Events))}
	if b.Source == "" {
		b.Source = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	for i, r := range raw.Events {
		b.Events[i] = r.event()
	}
	return b, nil
}

func build(ctx *cue.Context, name string, data []byte) (cue.Value, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		expr, err := json.Extract(name, data)
		if err != nil {
			return cue.Value{}, cueError(ErrCodeParse, err)
		}
		return checked(ctx.BuildExpr(expr))
	case ".yaml", ".yml":
		f, err := yaml.Extract(name, data)
		if err != nil {
			return cue.Value{}, cueError(ErrCodeParse, err)
		}
		return checked(ctx.BuildFile(f))
	case ".cue":
		return checked(ctx.CompileBytes(data, cue.Filename(name)))
	default:
		return cue.Value{}, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported batch format %q (want .json, .yaml, .yml or .cue)", filepath.Ext(name)),
		}
	}
}

func checked(v cue.Value) (cue.Value, error) {
	if err := v.Err(); err != nil {
		return cue.Value{}, cueError(ErrCodeParse, err)
	}
	return v, nil
}

// cueError keeps the first CUE error and its position.
func cueError(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

func (r record) event() event.Event {
	ev := event.Event{
		Timestamp:      r.Timestamp,
		Interpretation: r.Interpretation,
		Manifestation:  r.Manifestation,
		Actor:          r.Actor,
		Origin:         r.Origin,
		Subjects:       r.Subjects,
	}
	if r.Payload != "" {
		ev.Payload = []byte(r.Payload)
	}
	return ev
}
