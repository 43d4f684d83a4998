package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/light"
	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndLookup(t *testing.T) {
	s := NewScene("bench", camera.NewCamera())
	mesh := &loader.Mesh{Name: "fox"}
	l := light.NewPointLight()

	meshID := s.AddMesh(mesh)
	lightID := s.AddPointLight(l)

	assert.NotZero(t, meshID)
	assert.NotEqual(t, meshID, lightID)
	assert.Same(t, mesh, s.Mesh(meshID))
	assert.Equal(t, l, s.PointLight(lightID))
	assert.Nil(t, s.Mesh(lightID))
	assert.Nil(t, s.PointLight(999))

	s.RemoveMesh(meshID)
	s.RemovePointLight(lightID)
	assert.Zero(t, s.MeshCount())
	assert.Zero(t, s.LightCount())
}

func TestNewSceneRequiresCamera(t *testing.T) {
	assert.Panics(t, func() { NewScene("x", nil) })
}

func TestPointLightsKeepInsertionOrder(t *testing.T) {
	a := light.NewPointLight(light.WithIntensity(1))
	b := light.NewPointLight(light.WithIntensity(2))
	c := light.NewPointLight(light.WithIntensity(3))
	s := NewScene("bench", camera.NewCamera(), WithPointLights(a, b, c))

	got := s.PointLights()
	require.Len(t, got, 3)
	assert.Equal(t, float32(1), got[0].Intensity())
	assert.Equal(t, float32(3), got[2].Intensity())
}

func TestSnapshotIsDetachedFromLiveState(t *testing.T) {
	cam := camera.NewCamera()
	cam.LookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	l := light.NewPointLight(light.WithPosition(mgl32.Vec3{1, 2, 3}))
	s := NewScene("bench", cam, WithPointLights(l), WithMeshes(&loader.Mesh{}))

	snap := s.Snapshot()

	l.SetPosition(mgl32.Vec3{9, 9, 9})
	cam.LookAt(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})

	require.Len(t, snap.Lights, 1)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, snap.Lights[0].Position)
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, snap.Eye)
	assert.Len(t, snap.Meshes, 1)
}

func TestSnapshotSkipsDisabledAndCapsLights(t *testing.T) {
	s := NewScene("bench", camera.NewCamera())
	s.AddPointLight(light.NewPointLight(light.WithEnabled(false)))
	for i := 0; i < light.MaxGPULights+2; i++ {
		s.AddPointLight(light.NewPointLight())
	}

	snap := s.Snapshot()
	assert.Len(t, snap.Lights, light.MaxGPULights)
	for _, g := range snap.Lights {
		assert.Equal(t, uint32(1), g.Enabled)
	}
}

func TestBackground(t *testing.T) {
	s := NewScene("bench", camera.NewCamera(), WithBackground(mgl32.Vec4{1, 0, 0, 1}))
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, s.Snapshot().Background)

	s.SetBackground(mgl32.Vec4{0, 1, 0, 1})
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 1}, s.Background())
}
