package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_DefaultsToEpoch(t *testing.T) {
	clock := NewFakeClock(time.Time{})
	assert.True(t, clock.Now().Equal(Epoch))
}

func TestFakeClock_FrozenUntilAdvanced(t *testing.T) {
	clock := NewFakeClock(Epoch)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch, clock.Now())

	clock.Advance(time.Hour)
	assert.Equal(t, Epoch.Add(time.Hour), clock.Now())

	later := Epoch.AddDate(0, 0, 2)
	clock.Set(later)
	assert.Equal(t, later, clock.Peek())
}

func TestSteppingClock_AdvancesPerRead(t *testing.T) {
	clock := NewSteppingClock(Epoch, time.Second)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Peek())
}

func TestSteppingClock_ThreadSafe(t *testing.T) {
	clock := NewSteppingClock(Epoch, time.Millisecond)
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[time.Time]bool{}

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				ts := clock.Now()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine, "every read must get a distinct time")
}
