// Package clock provides the elapsed-time sources that drive animation.
package clock

import (
	"sync"
	"time"
)

// Clock is a monotonic source of elapsed time. The frame orchestrator reads it
// exactly once per frame.
type Clock interface {
	// Elapsed returns the time since the clock started.
	//
	// Returns:
	//   - time.Duration: a value that never decreases between calls
	Elapsed() time.Duration
}

// Micros converts an elapsed duration into whole microseconds.
func Micros(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d / time.Microsecond)
}

// Seconds converts an elapsed duration into the float32 animation phase used by the orbit math.
func Seconds(d time.Duration) float32 {
	return float32(Micros(d)) / 1e6
}

type realtimeClock struct {
	start time.Time
}

var _ Clock = &realtimeClock{}

// NewRealtime returns a Clock backed by the monotonic wall clock.
func NewRealtime() Clock {
	return &realtimeClock{start: time.Now()}
}

func (c *realtimeClock) Elapsed() time.Duration {
	return time.Since(c.start)
}

type fixedStepClock struct {
	mu    sync.Mutex
	step  time.Duration
	ticks int64
}

var _ Clock = &fixedStepClock{}

// NewFixedStep returns a Clock that advances by step on every read, starting at zero.
// Benchmarks use it to render the same animation regardless of frame time.
func NewFixedStep(step time.Duration) Clock {
	return &fixedStepClock{step: step}
}

func (c *fixedStepClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := time.Duration(c.ticks) * c.step
	c.ticks++
	return d
}

// Manual is a Clock whose time only moves when told to. Set ignores values that
// would move the clock backwards.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

var _ Clock = &Manual{}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}

// Set jumps the clock to d if d is not earlier than the current time.
func (m *Manual) Set(d time.Duration) {
	m.mu.Lock()
	if d > m.now {
		m.now = d
	}
	m.mu.Unlock()
}
