package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccepts(t *testing.T) {
	expr := And(
		Eq(Actor, "app://editor.desktop"),
		Or(HasPrefix(SubjectURI, "file:///home/"), HasPrefix(SubjectMimetype, "text/")),
		Not{Expr: Eq(SubjectText, "scratch")},
	)
	assert.NoError(t, Validate(expr))
	assert.NoError(t, Validate(All{}), "empty All is valid")
}

func TestValidatePrefixAllowList(t *testing.T) {
	allowed := map[Field]bool{
		Origin: true, SubjectURI: true, SubjectCurrentURI: true,
		SubjectOrigin: true, Actor: true, SubjectMimetype: true,
	}
	for _, f := range Fields() {
		t.Run(f.String(), func(t *testing.T) {
			assert.Equal(t, allowed[f], f.Prefixable())
			err := Validate(HasPrefix(f, "x"))
			if allowed[f] {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnsupportedPrefix)
			}
		})
	}
}

func TestValidateReportsPath(t *testing.T) {
	err := Validate(And(Eq(Actor, "a"), Or(Eq(Actor, "b"), HasPrefix(SubjectText, "x"))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter.all[1].any[1]")
	assert.Contains(t, err.Error(), "subject_text")
}

func TestValidateRejectsNil(t *testing.T) {
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate(Not{}))
	assert.Error(t, Validate(And(nil)))

	var m *Match
	assert.Error(t, Validate(m))
}

func TestValidateUnknownField(t *testing.T) {
	assert.Error(t, Validate(Match{Field: Field(99), Value: "x"}))
	assert.Equal(t, "Field(99)", Field(99).String())
}

func TestParseField(t *testing.T) {
	f, err := ParseField("subject-uri")
	require.NoError(t, err)
	assert.Equal(t, SubjectURI, f)

	f, err = ParseField(" Actor ")
	require.NoError(t, err)
	assert.Equal(t, Actor, f)

	_, err = ParseField("payload")
	assert.Error(t, err)
}
