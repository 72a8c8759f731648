package relevance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeitgeist/internal/event"
)

const viewer = "app://viewer.desktop"

func TestFocusSwitch_Related(t *testing.T) {
	e, _, _ := createTestEngine(t, 10*day)
	ctx := context.Background()
	reg := e.FocusSwitches()

	switches := []FocusSwitch{
		{Timestamp: 100, FromActor: editor, FromSubject: "doc://b.txt", ToActor: editor, ToSubject: "doc://a.txt"},
		{Timestamp: 200, FromActor: editor, FromSubject: "doc://a.txt", ToActor: viewer, ToSubject: "doc://c.png"},
		{Timestamp: 300, FromActor: viewer, FromSubject: "doc://c.png", ToActor: editor, ToSubject: "doc://a.txt"},
		{Timestamp: 400, FromActor: editor, FromSubject: "doc://a.txt", ToActor: editor, ToSubject: "doc://b.txt"},
		{Timestamp: 500, FromActor: editor, FromSubject: "doc://a.txt", ToActor: editor, ToSubject: "doc://b.txt"},
		// Focus left for a non-document window.
		{Timestamp: 600, FromActor: editor, FromSubject: "doc://a.txt", ToActor: "app://terminal"},
		// Self switch between two windows of the same document.
		{Timestamp: 700, FromActor: editor, FromSubject: "doc://a.txt", ToActor: viewer, ToSubject: "doc://a.txt"},
	}
	for _, sw := range switches {
		require.NoError(t, reg.Register(ctx, sw))
	}

	got, err := reg.Related(ctx, "doc://a.txt", event.Always(), 0)
	require.NoError(t, err)
	assert.Equal(t, []Ranked{
		{URI: "doc://b.txt", Count: 3},
		{URI: "doc://c.png", Count: 2},
	}, got)

	got, err = reg.Related(ctx, "doc://a.txt", event.TimeRange{Start: 150, End: 450}, 0)
	require.NoError(t, err)
	assert.Equal(t, []Ranked{
		{URI: "doc://c.png", Count: 2},
		{URI: "doc://b.txt", Count: 1},
	}, got)

	got, err = reg.Related(ctx, "doc://never-seen", event.Always(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFocusSwitch_ClearAndPrune(t *testing.T) {
	e, st, _ := createTestEngine(t, 10*day)
	ctx := context.Background()
	reg := e.FocusSwitches()

	for _, ts := range []int64{100, 200, 300} {
		require.NoError(t, reg.Register(ctx, FocusSwitch{
			Timestamp: ts, FromSubject: "doc://a.txt", ToSubject: "doc://b.txt",
		}))
	}

	n, err := reg.Prune(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := reg.Related(ctx, "doc://a.txt", event.Always(), 0)
	require.NoError(t, err)
	assert.Equal(t, []Ranked{{URI: "doc://b.txt", Count: 1}}, got)

	n, err = reg.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var rows int
	require.NoError(t, st.DB().QueryRow(`SELECT COUNT(*) FROM focus_switch`).Scan(&rows))
	assert.Zero(t, rows)
}

func TestFocusDuration_OpenAndClose(t *testing.T) {
	e, _, _ := createTestEngine(t, 10*day)
	ctx := context.Background()
	reg := e.FocusDurations()

	require.NoError(t, reg.FocusChange(ctx, 1000, editor, "doc://a.txt"))
	require.NoError(t, reg.FocusChange(ctx, 4000, viewer, "doc://b.png"))
	require.NoError(t, reg.FocusChange(ctx, 5000, editor, "doc://a.txt"))
	require.NoError(t, reg.FocusChange(ctx, 7000, "", ""))
	// Still open, must not count.
	require.NoError(t, reg.FocusChange(ctx, 9000, editor, "doc://a.txt"))

	d, err := reg.Duration(ctx, "doc://a.txt", event.Always())
	require.NoError(t, err)
	assert.Equal(t, int64(3000+2000), d)

	d, err = reg.Duration(ctx, "doc://a.txt", event.TimeRange{Start: 4500, End: 10000})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), d)

	d, err = reg.Duration(ctx, "doc://b.png", event.Always())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), d)

	d, err = reg.Duration(ctx, "doc://never-seen", event.Always())
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestFocusDuration_RepeatedChangeAtSameTimestamp(t *testing.T) {
	e, st, _ := createTestEngine(t, 10*day)
	ctx := context.Background()
	reg := e.FocusDurations()

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.FocusChange(ctx, 100, editor, "doc://a"))
	}
	require.NoError(t, reg.FocusChange(ctx, 100, viewer, "doc://b"))
	require.NoError(t, reg.FocusChange(ctx, 100, editor, "doc://a"))
	require.NoError(t, reg.FocusChange(ctx, 400, "", ""))

	d, err := reg.Duration(ctx, "doc://a", event.Always())
	require.NoError(t, err)
	assert.Equal(t, int64(300), d)

	d, err = reg.Duration(ctx, "doc://b", event.Always())
	require.NoError(t, err)
	assert.Zero(t, d)

	var n int
	require.NoError(t, st.DB().QueryRow(`SELECT COUNT(*) FROM focus_duration`).Scan(&n))
	assert.Equal(t, 1, n, "zero-length intervals are dropped")
}

func TestFocusDuration_Top(t *testing.T) {
	e, _, _ := createTestEngine(t, 10*day)
	ctx := context.Background()
	reg := e.FocusDurations()

	require.NoError(t, reg.FocusChange(ctx, 0, editor, "doc://a.txt"))
	require.NoError(t, reg.FocusChange(ctx, 1000, viewer, "doc://b.png"))
	require.NoError(t, reg.FocusChange(ctx, 4000, editor, "doc://c.txt"))
	require.NoError(t, reg.FocusChange(ctx, 6000, editor, "doc://a.txt"))
	require.NoError(t, reg.FocusChange(ctx, 7000, "", ""))

	subjects, err := reg.TopSubjects(ctx, event.Always(), 0)
	require.NoError(t, err)
	assert.Equal(t, []FocusTotal{
		{Value: "doc://b.png", Duration: 3000},
		{Value: "doc://a.txt", Duration: 2000},
		{Value: "doc://c.txt", Duration: 2000},
	}, subjects)

	actors, err := reg.TopActors(ctx, event.Always(), 1)
	require.NoError(t, err)
	assert.Equal(t, []FocusTotal{{Value: editor, Duration: 4000}}, actors)
}

func TestFocusDuration_SubjectWithoutActor(t *testing.T) {
	e, _, _ := createTestEngine(t, 10*day)
	err := e.FocusDurations().FocusChange(context.Background(), 1000, "", "doc://a.txt")
	assert.Error(t, err)
}

func TestFocusDuration_Prune(t *testing.T) {
	e, _, _ := createTestEngine(t, 10*day)
	ctx := context.Background()
	reg := e.FocusDurations()

	require.NoError(t, reg.FocusChange(ctx, 1000, editor, "doc://a.txt"))
	require.NoError(t, reg.FocusChange(ctx, 2000, editor, "doc://b.txt"))
	require.NoError(t, reg.FocusChange(ctx, 3000, editor, "doc://c.txt"))

	// Only the a.txt interval closed before 2500; c.txt is still open.
	n, err := reg.Prune(ctx, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	d, err := reg.Duration(ctx, "doc://b.txt", event.Always())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), d)
}

func TestNewRegisters_Standalone(t *testing.T) {
	_, st, _ := createTestEngine(t, 10*day)
	ctx := context.Background()

	require.NoError(t, NewFocusSwitchRegister(st).Register(ctx, FocusSwitch{
		Timestamp: 1, FromSubject: "doc://x", ToSubject: "doc://y",
	}))
	require.NoError(t, NewFocusDurationRegister(st).FocusChange(ctx, 1, editor, "doc://x"))
}
