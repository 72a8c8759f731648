package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/zeitgeist/internal/event"
)

// ParseTerm turns user input for one field into an expression. A leading
// "!" negates the term and a trailing "*" turns it into a prefix match.
// A literal leading "!" can be written as "\!".
func ParseTerm(f Field, raw string) Expr {
	negate := false
	switch {
	case strings.HasPrefix(raw, `\!`):
		raw = raw[1:]
	case strings.HasPrefix(raw, "!"):
		negate = true
		raw = raw[1:]
	}
	if strings.HasSuffix(raw, "*") {
		return Prefix{Field: f, Value: strings.TrimSuffix(raw, "*"), Negate: negate}
	}
	return Match{Field: f, Value: raw, Negate: negate}
}

// ParseAssignment parses "field=term" as accepted on the command line.
func ParseAssignment(s string) (Expr, error) {
	name, term, ok := strings.Cut(s, "=")
	if !ok {
		return nil, fmt.Errorf("filter %q: expected field=value", s)
	}
	f, err := ParseField(name)
	if err != nil {
		return nil, err
	}
	expr := ParseTerm(f, term)
	if err := Validate(expr); err != nil {
		return nil, err
	}
	return expr, nil
}

// FromTemplate builds an expression from an event template. Every non-empty
// field becomes a term parsed with ParseTerm. Event-level terms are AND-ed;
// each template subject contributes an AND group and the groups are OR-ed,
// so an event matches if any one of its subjects matches any one subject
// template.
func FromTemplate(tmpl event.Event) Expr {
	var terms []Expr
	add := func(list *[]Expr, f Field, v string) {
		if v != "" {
			*list = append(*list, ParseTerm(f, v))
		}
	}

	add(&terms, Interpretation, tmpl.Interpretation)
	add(&terms, Manifestation, tmpl.Manifestation)
	add(&terms, Actor, tmpl.Actor)
	add(&terms, Origin, tmpl.Origin)

	var subjects []Expr
	for _, s := range tmpl.Subjects {
		var st []Expr
		add(&st, SubjectURI, s.URI)
		add(&st, SubjectCurrentURI, s.CurrentURI)
		add(&st, SubjectInterpretation, s.Interpretation)
		add(&st, SubjectManifestation, s.Manifestation)
		add(&st, SubjectOrigin, s.Origin)
		add(&st, SubjectMimetype, s.Mimetype)
		add(&st, SubjectText, s.Text)
		add(&st, SubjectStorage, s.Storage)
		if len(st) > 0 {
			subjects = append(subjects, All{Exprs: st})
		}
	}
	if len(subjects) > 0 {
		terms = append(terms, Any{Exprs: subjects})
	}
	return All{Exprs: terms}
}

// FromTemplates OR-s several templates. No templates means no restriction.
func FromTemplates(tmpls ...event.Event) Expr {
	if len(tmpls) == 1 {
		return FromTemplate(tmpls[0])
	}
	exprs := make([]Expr, len(tmpls))
	for i, t := range tmpls {
		exprs[i] = FromTemplate(t)
	}
	return Any{Exprs: exprs}
}
