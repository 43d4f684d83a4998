package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewPointLightOptions(t *testing.T) {
	l := NewPointLight(
		WithPosition(mgl32.Vec3{1, 2, 3}),
		WithColor(mgl32.Vec3{1, 0.3, 0.3}),
		WithIntensity(800),
	)

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, l.Position())
	assert.Equal(t, mgl32.Vec3{1, 0.3, 0.3}, l.Color())
	assert.Equal(t, float32(800), l.Intensity())
	assert.True(t, l.Enabled())
}

func TestSnapshotIsDetached(t *testing.T) {
	l := NewPointLight(WithPosition(mgl32.Vec3{1, 0, 0}))
	snap := l.Snapshot()

	l.SetPosition(mgl32.Vec3{5, 5, 5})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, snap.Position)
	assert.Equal(t, uint32(1), snap.Enabled)
}

func TestGPULightLayout(t *testing.T) {
	g := GPULight{Position: mgl32.Vec3{1, 2, 3}, Intensity: 4, Color: mgl32.Vec3{5, 6, 7}, Enabled: 1}
	assert.Equal(t, 32, g.Size())

	buf := g.Marshal()
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(3), f(8))
	assert.Equal(t, float32(4), f(12))
	assert.Equal(t, float32(5), f(16))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[28:]))
}

func TestRadianceFalloff(t *testing.T) {
	g := GPULight{Color: mgl32.Vec3{1, 1, 1}, Intensity: 10, Enabled: 1}

	near := g.Radiance(1)
	far := g.Radiance(3)
	assert.InDelta(t, 5, near.X(), 1e-6)
	assert.InDelta(t, 1, far.X(), 1e-6)

	g.Enabled = 0
	assert.Equal(t, mgl32.Vec3{}, g.Radiance(1))
}
