package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueue_FIFO(t *testing.T) {
	q := newJobQueue()
	for _, tok := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(&job{token: tok}))
	}

	for _, want := range []string{"A", "B", "C"} {
		j, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, j.token)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestJobQueue_SignalCoalesces(t *testing.T) {
	q := newJobQueue()
	q.Enqueue(&job{token: "A"})
	q.Enqueue(&job{token: "B"})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("second signal should have coalesced into the first")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestJobQueue_Close(t *testing.T) {
	q := newJobQueue()
	q.Enqueue(&job{token: "A"})
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(&job{token: "B"}), "enqueue after close must fail")

	// The closed signal channel never blocks.
	<-q.Wait()
	<-q.Wait()

	drained := q.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "A", drained[0].token)
	assert.Zero(t, q.Len())
}

func TestJobQueue_ConcurrentEnqueue(t *testing.T) {
	q := newJobQueue()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(&job{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, q.Len())
}
