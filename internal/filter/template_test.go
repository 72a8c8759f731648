package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeitgeist/internal/event"
)

func TestParseTerm(t *testing.T) {
	tests := []struct {
		raw  string
		want Expr
	}{
		{"app://editor.desktop", Match{Field: Actor, Value: "app://editor.desktop"}},
		{"!app://editor.desktop", Match{Field: Actor, Value: "app://editor.desktop", Negate: true}},
		{"app://*", Prefix{Field: Actor, Value: "app://"}},
		{"!app://*", Prefix{Field: Actor, Value: "app://", Negate: true}},
		{`\!bang`, Match{Field: Actor, Value: "!bang"}},
		{"*", Prefix{Field: Actor, Value: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTerm(Actor, tt.raw))
		})
	}
}

func TestParseAssignment(t *testing.T) {
	expr, err := ParseAssignment("subject_uri=file:///home/*")
	require.NoError(t, err)
	assert.Equal(t, Prefix{Field: SubjectURI, Value: "file:///home/"}, expr)

	_, err = ParseAssignment("subject_text=draft*")
	assert.ErrorIs(t, err, ErrUnsupportedPrefix)

	_, err = ParseAssignment("actor")
	assert.Error(t, err)

	_, err = ParseAssignment("colour=red")
	assert.Error(t, err)
}

func TestFromTemplate(t *testing.T) {
	tmpl := event.Event{
		Actor: "!app://spam.desktop",
		Subjects: []event.Subject{
			{URI: "file:///home/*", Mimetype: "text/plain"},
			{Interpretation: "nfo#Image"},
		},
	}

	got := FromTemplate(tmpl)
	want := All{Exprs: []Expr{
		Match{Field: Actor, Value: "app://spam.desktop", Negate: true},
		Any{Exprs: []Expr{
			All{Exprs: []Expr{
				Prefix{Field: SubjectURI, Value: "file:///home/"},
				Eq(SubjectMimetype, "text/plain"),
			}},
			All{Exprs: []Expr{Eq(SubjectInterpretation, "nfo#Image")}},
		}},
	}}
	assert.Equal(t, want, got)
	assert.NoError(t, Validate(got))
}

func TestFromTemplateEmpty(t *testing.T) {
	assert.Equal(t, All{}, FromTemplate(event.Event{}))
}

func TestFromTemplates(t *testing.T) {
	a := event.Event{Actor: "app://a"}
	b := event.Event{Actor: "app://b"}

	assert.Equal(t, FromTemplate(a), FromTemplates(a))
	assert.Equal(t, Any{Exprs: []Expr{FromTemplate(a), FromTemplate(b)}}, FromTemplates(a, b))
}
