package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealtimeIsMonotonic(t *testing.T) {
	c := NewRealtime()
	prev := c.Elapsed()
	for i := 0; i < 100; i++ {
		next := c.Elapsed()
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestFixedStep(t *testing.T) {
	c := NewFixedStep(10 * time.Millisecond)

	assert.Equal(t, time.Duration(0), c.Elapsed())
	assert.Equal(t, 10*time.Millisecond, c.Elapsed())
	assert.Equal(t, 20*time.Millisecond, c.Elapsed())
}

func TestManualNeverRollsBack(t *testing.T) {
	m := NewManual(time.Second)

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, m.Elapsed())

	m.Set(time.Second)
	assert.Equal(t, 1500*time.Millisecond, m.Elapsed())

	m.Advance(-time.Second)
	assert.Equal(t, 1500*time.Millisecond, m.Elapsed())

	m.Set(3 * time.Second)
	assert.Equal(t, 3*time.Second, m.Elapsed())
}

func TestSecondsUsesMicros(t *testing.T) {
	assert.Equal(t, uint64(1_500_000), Micros(1500*time.Millisecond))
	assert.InDelta(t, 1.5, Seconds(1500*time.Millisecond), 1e-6)
	assert.Equal(t, uint64(0), Micros(-time.Second))
	// sub-microsecond remainders are truncated
	assert.Equal(t, uint64(1), Micros(1999*time.Nanosecond))
}
