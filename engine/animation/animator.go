// Package animation advances the benchmark scene from elapsed time: orbiting lights and the
// camera rig. It is the only code that mutates the scene during a frame.
package animation

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-bench/engine/clock"
	"github.com/Carmen-Shannon/oxy-bench/engine/light"
	"github.com/Carmen-Shannon/oxy-bench/engine/orbit"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
)

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.Mutex

	scene  scene.Scene
	lights []boundLight
	speed  float32

	last    time.Duration
	started bool
}

// boundLight ties an orbit description to the scene light it drives.
type boundLight struct {
	id    uint64
	orbit orbit.OrbitLight
	light light.Light
}

// Animator defines the interface for the per-frame scene animation.
//
// The Animator owns a set of orbiting point lights it registered in the scene and moves them
// along their circles, then lets the camera pull its pose from its controller. Animation is a
// pure function of elapsed time, so two animators fed the same times produce the same scene.
type Animator interface {
	// Animate moves every orbit light to its position at elapsed and updates the camera.
	// Elapsed values smaller than a previous call are clamped, so animation time never
	// runs backward.
	//
	// Parameters:
	//   - elapsed: time since the clock started
	Animate(elapsed time.Duration)

	// Time returns the animation phase of the last Animate call, in seconds.
	//
	// Returns:
	//   - float32: the scaled animation time
	Time() float32

	// LightIDs returns the scene IDs of the orbit lights, in orbit order.
	//
	// Returns:
	//   - []uint64: the light IDs
	LightIDs() []uint64
}

var _ Animator = &animator{}

// NewAnimator creates an animator for s. Orbit lights given through WithOrbitLights are added to
// the scene immediately and placed at their time-zero positions.
//
// Parameters:
//   - s: the scene to animate
//   - options: a variadic list of AnimatorBuilderOption functions
//
// Returns:
//   - Animator: the new animator
func NewAnimator(s scene.Scene, options ...AnimatorBuilderOption) Animator {
	a := &animator{
		mu:    &sync.Mutex{},
		scene: s,
		speed: 1,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) Animate(elapsed time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started && elapsed < a.last {
		elapsed = a.last
	}
	a.last = elapsed
	a.started = true

	t := a.timeLocked()
	for _, b := range a.lights {
		b.light.SetPosition(b.orbit.Position(t))
	}
	a.scene.Camera().Update()
}

func (a *animator) Time() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeLocked()
}

func (a *animator) LightIDs() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]uint64, len(a.lights))
	for i, b := range a.lights {
		ids[i] = b.id
	}
	return ids
}

func (a *animator) timeLocked() float32 {
	return clock.Seconds(a.last) * a.speed
}

func (a *animator) addOrbitLight(o orbit.OrbitLight) {
	l := light.NewPointLight(
		light.WithPosition(o.Position(0)),
		light.WithColor(o.Color),
		light.WithIntensity(o.Intensity),
	)
	id := a.scene.AddPointLight(l)
	a.lights = append(a.lights, boundLight{id: id, orbit: o, light: l})
}
