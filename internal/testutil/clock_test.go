package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtGivenTime(t *testing.T) {
	clock := NewManualClock(1700000000000)
	assert.Equal(t, int64(1700000000000), clock.Millis())
	assert.Equal(t, int64(1700000000000), clock.Now().UnixMilli())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(0)

	assert.Equal(t, int64(1000), clock.Advance(time.Second))
	assert.Equal(t, int64(61000), clock.Advance(time.Minute))
	assert.Equal(t, int64(61000), clock.Now().UnixMilli())
}

func TestManualClock_Set(t *testing.T) {
	clock := NewManualClock(5000)
	clock.Set(100)
	assert.Equal(t, int64(100), clock.Millis())
}

func TestManualClock_ConcurrentAdvance(t *testing.T) {
	clock := NewManualClock(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), clock.Millis())
}
