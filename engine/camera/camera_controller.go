package camera

import (
	"github.com/Carmen-Shannon/oxy-bench/engine/orbit"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController owns the camera rig: yaw, pitch and distance from the origin.
// The camera reads the derived eye position once per frame; user input mutates the
// rig between frames through the orbit and zoom methods.
type CameraController interface {
	// Eye returns the world-space eye position derived from the rig.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Eye() mgl32.Vec3

	// Target returns the look-at point. The rig always looks at the origin.
	//
	// Returns:
	//   - mgl32.Vec3: the look-at point
	Target() mgl32.Vec3

	// Up returns the fixed up vector (0, 1, 0).
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Rig returns a copy of the current rig state.
	//
	// Returns:
	//   - orbit.CameraRig: yaw, pitch and distance
	Rig() orbit.CameraRig

	// SetRig replaces the rig state. A non-positive distance is replaced by orbit.MinDistance.
	//
	// Parameters:
	//   - rig: the new rig state
	SetRig(rig orbit.CameraRig)

	// Reset restores the rig the controller was created with.
	Reset()

	// OrbitLeft rotates the rig left by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the rig right by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the rig upward by one orbit speed step.
	OrbitUp()

	// OrbitDown tilts the rig downward by one orbit speed step.
	OrbitDown()

	// Drag rotates the rig by a mouse movement in pixels, scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal cursor movement
	//   - dy: vertical cursor movement
	Drag(dx, dy float32)

	// Zoom moves the rig toward (positive delta) or away from the origin. Each unit of
	// delta scales the distance by the zoom step.
	//
	// Parameters:
	//   - delta: zoom amount, typically a scroll offset
	Zoom(delta float32)
}
