package animation

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/clock"
	"github.com/Carmen-Shannon/oxy-bench/engine/orbit"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRig(t *testing.T, options ...AnimatorBuilderOption) (scene.Scene, Animator) {
	t.Helper()
	ctrl := camera.NewOrbitController(2)
	s := scene.NewScene("anim", camera.NewCamera(camera.WithController(ctrl)))
	opts := append([]AnimatorBuilderOption{WithOrbitLights(orbit.ThreeLights(10, 10, 800)...)}, options...)
	return s, NewAnimator(s, opts...)
}

func TestOrbitLightsRegistered(t *testing.T) {
	s, a := newRig(t)

	ids := a.LightIDs()
	require.Len(t, ids, 3)
	assert.Equal(t, 3, s.LightCount())

	first := s.PointLight(ids[0])
	require.NotNil(t, first)
	assert.Equal(t, mgl32.Vec3{10, 10, 0}, first.Position())
	assert.Equal(t, float32(800), first.Intensity())
}

func TestAnimateFollowsClock(t *testing.T) {
	s, a := newRig(t)
	c := clock.NewManual(0)

	quarter := float64(math32.Pi / 2)
	c.Set(time.Duration(float64(time.Second) * quarter))
	a.Animate(c.Elapsed())

	p := s.PointLight(a.LightIDs()[0]).Position()
	assert.InDelta(t, 0, p.X(), 1e-3)
	assert.InDelta(t, 10, p.Y(), 1e-6)
	assert.InDelta(t, 10, p.Z(), 1e-3)

	// the second light trails the first by 2π/3
	want := orbit.LightPosition(a.Time(), 2*math32.Pi/3, 10, 10)
	assert.True(t, want.ApproxEqualThreshold(s.PointLight(a.LightIDs()[1]).Position(), 1e-4))
}

func TestAnimateNeverRunsBackward(t *testing.T) {
	s, a := newRig(t)

	a.Animate(2 * time.Second)
	before := s.PointLight(a.LightIDs()[0]).Position()

	a.Animate(time.Second)
	assert.Equal(t, float32(2), a.Time())
	assert.Equal(t, before, s.PointLight(a.LightIDs()[0]).Position())
}

func TestAnimateUpdatesCameraFromController(t *testing.T) {
	s, a := newRig(t)
	ctrl := s.Camera().Controller()
	ctrl.SetRig(orbit.CameraRig{Yaw: math32.Pi / 2, Distance: 4})

	a.Animate(0)

	assert.True(t, s.Camera().Eye().ApproxEqualThreshold(orbit.CameraEye(ctrl.Rig()), 1e-5))
	assert.Equal(t, mgl32.Vec3{}, s.Camera().Target())
}

func TestSpeedScalesTime(t *testing.T) {
	_, a := newRig(t, WithSpeed(2))
	a.Animate(1500 * time.Millisecond)
	assert.InDelta(t, 3, a.Time(), 1e-6)
}

func TestSameTimeSameScene(t *testing.T) {
	s1, a1 := newRig(t)
	s2, a2 := newRig(t)

	a1.Animate(1234 * time.Millisecond)
	a2.Animate(1234 * time.Millisecond)

	assert.Equal(t, s1.Snapshot().Lights, s2.Snapshot().Lights)
	assert.Equal(t, s1.Snapshot().ViewProjection, s2.Snapshot().ViewProjection)
}
