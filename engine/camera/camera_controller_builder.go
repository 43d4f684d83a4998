package camera

import "github.com/Carmen-Shannon/oxy-bench/engine/orbit"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithRig sets the initial rig state, which Reset also returns to.
//
// Parameters:
//   - rig: initial yaw, pitch and distance
//
// Returns:
//   - CameraControllerOption: functional option to set the rig
func WithRig(rig orbit.CameraRig) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.rig = rig
	}
}

// WithOrbitSpeed sets the keyboard orbit speed.
//
// Parameters:
//   - speed: radians per orbit call
//
// Returns:
//   - CameraControllerOption: functional option to set orbit speed
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithMouseSensitivity sets the mouse drag sensitivity.
//
// Parameters:
//   - sensitivity: radians per pixel of cursor movement
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithZoomStep sets the fraction of the distance covered by one unit of zoom.
//
// Parameters:
//   - step: fraction in (0, 1)
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom step
func WithZoomStep(step float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomStep = step
	}
}
