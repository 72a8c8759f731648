package filter

import (
	"fmt"
	"strings"
)

// Field is a filterable event or subject attribute.
type Field int

const (
	Interpretation Field = iota
	Manifestation
	Actor
	Origin
	SubjectURI
	SubjectCurrentURI
	SubjectInterpretation
	SubjectManifestation
	SubjectOrigin
	SubjectMimetype
	SubjectText
	SubjectStorage

	numFields
)

var fieldNames = [numFields]string{
	Interpretation:        "interpretation",
	Manifestation:         "manifestation",
	Actor:                 "actor",
	Origin:                "origin",
	SubjectURI:            "subject_uri",
	SubjectCurrentURI:     "subject_current_uri",
	SubjectInterpretation: "subject_interpretation",
	SubjectManifestation:  "subject_manifestation",
	SubjectOrigin:         "subject_origin",
	SubjectMimetype:       "subject_mimetype",
	SubjectText:           "subject_text",
	SubjectStorage:        "subject_storage",
}

// Fields returns every field in declaration order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return f >= 0 && f < numFields
}

// Prefixable reports whether prefix matching is supported on f.
func (f Field) Prefixable() bool {
	switch f {
	case Origin, SubjectURI, SubjectCurrentURI, SubjectOrigin, Actor, SubjectMimetype:
		return true
	default:
		return false
	}
}

// ParseField accepts a field name such as "actor" or "subject_uri".
// Hyphens are accepted in place of underscores.
func ParseField(name string) (Field, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown filter field %q", name)
}
