package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-bench/engine/orbit"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraControllerImpl is the single implementation of CameraController.
// It stores the rig and derives the eye with orbit.CameraEye.
type cameraControllerImpl struct {
	mu *sync.Mutex

	rig     orbit.CameraRig
	initial orbit.CameraRig

	orbitSpeed       float32
	mouseSensitivity float32
	zoomStep         float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a rig controller with sensible defaults.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		rig:              orbit.CameraRig{Distance: 10},
		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomStep:         0.1,
	}

	for _, option := range options {
		option(cc)
	}

	if cc.rig.Distance <= 0 {
		cc.rig.Distance = orbit.MinDistance
	}
	cc.initial = cc.rig
	return cc
}

// NewOrbitController creates a controller framing a mesh with the given bounding-box diagonal.
//
// Parameters:
//   - diagonal: bounding-box diagonal of the mesh under test
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(diagonal float32, options ...CameraControllerOption) CameraController {
	return NewCameraController(append([]CameraControllerOption{WithRig(orbit.NewCameraRig(diagonal))}, options...)...)
}

func (cc *cameraControllerImpl) Eye() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return orbit.CameraEye(cc.rig)
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	return orbit.Origin
}

func (cc *cameraControllerImpl) Up() mgl32.Vec3 {
	return orbit.Up
}

func (cc *cameraControllerImpl) Rig() orbit.CameraRig {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.rig
}

func (cc *cameraControllerImpl) SetRig(rig orbit.CameraRig) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if rig.Distance <= 0 {
		rig.Distance = orbit.MinDistance
	}
	cc.rig = rig
}

func (cc *cameraControllerImpl) Reset() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.rig = cc.initial
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.orbit(-cc.orbitSpeed, 0)
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.orbit(cc.orbitSpeed, 0)
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.orbit(0, cc.orbitSpeed)
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.orbit(0, -cc.orbitSpeed)
}

func (cc *cameraControllerImpl) Drag(dx, dy float32) {
	cc.orbit(dx*cc.mouseSensitivity, dy*cc.mouseSensitivity)
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.rig.Zoom(math32.Pow(1-cc.zoomStep, delta))
}

func (cc *cameraControllerImpl) orbit(dyaw, dpitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.rig.Orbit(dyaw, dpitch)
}
