package animation

import (
	"github.com/Carmen-Shannon/oxy-bench/engine/orbit"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithOrbitLights is an option builder that registers one scene point light per orbit description.
//
// Parameters:
//   - lights: the orbit descriptions, typically orbit.ThreeLights
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the orbit lights option to an animator
func WithOrbitLights(lights ...orbit.OrbitLight) AnimatorBuilderOption {
	return func(a *animator) {
		for _, o := range lights {
			a.addOrbitLight(o)
		}
	}
}

// WithSpeed is an option builder that scales animation time. 1 is real time.
//
// Parameters:
//   - speed: the time multiplier, non-positive values are ignored
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the speed option to an animator
func WithSpeed(speed float32) AnimatorBuilderOption {
	return func(a *animator) {
		if speed > 0 {
			a.speed = speed
		}
	}
}
