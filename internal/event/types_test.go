package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	assert.NoError(t, sampleEvent().Validate())

	noSubjects := sampleEvent()
	noSubjects.Subjects = nil
	assert.ErrorIs(t, noSubjects.Validate(), ErrNoSubjects)

	emptyURI := sampleEvent()
	emptyURI.Subjects[1].URI = ""
	assert.ErrorContains(t, emptyURI.Validate(), "subject[1]: empty uri")

	negative := sampleEvent()
	negative.Timestamp = -1
	assert.Error(t, negative.Validate())

	blankTag := sampleEvent()
	blankTag.Subjects[0].Tags = []string{"work", "  "}
	assert.ErrorContains(t, blankTag.Validate(), "tag[1] is blank")
}

func TestEventNormalized(t *testing.T) {
	ev := sampleEvent()
	ev.Subjects[0].CurrentURI = "doc://moved.txt"
	ev.Subjects[1].Tags = []string{" work ", "home", "work"}

	n := ev.Normalized()
	assert.Equal(t, "doc://moved.txt", n.Subjects[0].CurrentURI)
	assert.Equal(t, "doc://b.txt", n.Subjects[1].CurrentURI)
	assert.Equal(t, []string{"home", "work"}, n.Subjects[1].Tags)

	// original is untouched
	assert.Empty(t, ev.Subjects[1].CurrentURI)
}

func TestTimeRangeContains(t *testing.T) {
	r := TimeRange{Start: 100, End: 200}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(199))
	assert.False(t, r.Contains(200), "end is exclusive")
	assert.False(t, r.Contains(99))

	open := TimeRange{Start: 100}
	assert.True(t, open.Contains(1<<50))
	assert.Equal(t, "[100, +inf)", open.String())
	assert.True(t, Always().Contains(0))
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, OrderDescending, o)

	o, err = ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderAscending, o)

	_, err = ParseOrder("sideways")
	assert.Error(t, err)
}
