package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSchedule_Delay(t *testing.T) {
	s := DefaultSchedule()

	assert.Equal(t, 2*time.Second, s.Delay(0))
	assert.Equal(t, 3*time.Second, s.Delay(1))
	assert.Equal(t, 5*time.Second, s.Delay(2))
	assert.Equal(t, 8*time.Second, s.Delay(3))
	assert.Equal(t, 13*time.Second, s.Delay(4))
	assert.Equal(t, 15*time.Second, s.Delay(5))

	// Exhausted schedule holds at the last entry.
	assert.Equal(t, 15*time.Second, s.Delay(6))
	assert.Equal(t, 15*time.Second, s.Delay(1000))

	assert.Equal(t, 2*time.Second, s.Delay(-1))
	assert.Equal(t, time.Duration(0), Schedule(nil).Delay(3))
}

func TestSchedule_DelayClamp_Property(t *testing.T) {
	s := DefaultSchedule()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10_000).Draw(rt, "n")
		want := s[min(n-1, len(s)-1)]
		if got := s.Delay(n - 1); got != want {
			rt.Fatalf("delay for attempt %d: got %v want %v", n, got, want)
		}
	})
}
