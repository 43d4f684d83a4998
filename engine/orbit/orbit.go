// Package orbit holds the pure animation math of the benchmark: lights circling
// the mesh and a yaw/pitch/distance camera rig looking at the origin.
package orbit

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DistanceScale frames the whole mesh when applied to its bounding-box diagonal.
	DistanceScale float32 = 1.3

	// MinDistance keeps the rig outside the origin when zooming in.
	MinDistance float32 = 1e-3

	// maxPitch stops the rig short of the poles, where the fixed up vector degenerates.
	maxPitch = math32.Pi/2 - 1e-3
)

var (
	// Up is the fixed up vector the camera looks at the origin with.
	Up = mgl32.Vec3{0, 1, 0}
	// Origin is the look-at target.
	Origin = mgl32.Vec3{0, 0, 0}
)

// LightPosition returns (radius*cos(t+phase), height, radius*sin(t+phase)).
func LightPosition(t, phase, radius, height float32) mgl32.Vec3 {
	a := t + phase
	return mgl32.Vec3{radius * math32.Cos(a), height, radius * math32.Sin(a)}
}

// LightPhases returns n phase offsets spaced evenly around the circle, starting at zero.
func LightPhases(n int) []float32 {
	phases := make([]float32, n)
	for i := range phases {
		phases[i] = float32(i) * 2 * math32.Pi / float32(n)
	}
	return phases
}

// OrbitLight is a point light whose position is derived from time each frame.
type OrbitLight struct {
	Phase     float32
	Radius    float32
	Height    float32
	Color     mgl32.Vec3
	Intensity float32
}

// Position returns the light position at animation time t, in seconds.
func (l OrbitLight) Position(t float32) mgl32.Vec3 {
	return LightPosition(t, l.Phase, l.Radius, l.Height)
}

// DefaultColors are the red, green and blue tints of the three benchmark lights.
var DefaultColors = []mgl32.Vec3{
	{1, 0.3, 0.3},
	{0.3, 1, 0.3},
	{0.3, 0.3, 1},
}

// ThreeLights returns the standard rig of three lights spaced 2π/3 apart on one circle.
func ThreeLights(radius, height, intensity float32) []OrbitLight {
	phases := LightPhases(len(DefaultColors))
	lights := make([]OrbitLight, len(phases))
	for i, phase := range phases {
		lights[i] = OrbitLight{
			Phase:     phase,
			Radius:    radius,
			Height:    height,
			Color:     DefaultColors[i],
			Intensity: intensity,
		}
	}
	return lights
}

// CameraRig is the orientation state of the camera: yaw about +Y, pitch about +X,
// and the distance from the origin.
type CameraRig struct {
	Yaw      float32
	Pitch    float32
	Distance float32
}

// NewCameraRig returns a rig framing a mesh with the given bounding-box diagonal.
func NewCameraRig(diagonal float32) CameraRig {
	return CameraRig{Distance: InitialDistance(diagonal)}
}

// InitialDistance returns 1.3 times the diagonal, never less than MinDistance.
func InitialDistance(diagonal float32) float32 {
	return math32.Max(DistanceScale*diagonal, MinDistance)
}

// Rotation composes yaw about +Y with pitch about +X.
func (r CameraRig) Rotation() mgl32.Quat {
	yaw := mgl32.QuatRotate(r.Yaw, mgl32.Vec3{0, 1, 0})
	pitch := mgl32.QuatRotate(r.Pitch, mgl32.Vec3{1, 0, 0})
	return yaw.Mul(pitch)
}

// CameraEye rotates the backward offset (0, 0, -distance) by the rig orientation.
func CameraEye(rig CameraRig) mgl32.Vec3 {
	return rig.Rotation().Rotate(mgl32.Vec3{0, 0, -rig.Distance})
}

// Orbit adds to yaw and pitch. Pitch is clamped short of straight up or down.
func (r *CameraRig) Orbit(dyaw, dpitch float32) {
	r.Yaw = math32.Mod(r.Yaw+dyaw, 2*math32.Pi)
	r.Pitch = mgl32.Clamp(r.Pitch+dpitch, -maxPitch, maxPitch)
}

// Zoom scales the distance by factor. Non-positive factors are ignored.
func (r *CameraRig) Zoom(factor float32) {
	if factor <= 0 {
		return
	}
	r.Distance = math32.Max(r.Distance*factor, MinDistance)
}
