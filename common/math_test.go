package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPerspectiveZOMapsNearAndFar(t *testing.T) {
	near, far := float32(0.5), float32(50)
	proj := PerspectiveZO(mgl32.DegToRad(60), 1.5, near, far)

	project := func(z float32) float32 {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, -z, 1})
		return clip.Z() / clip.W()
	}
	assert.InDelta(t, 0, project(near), 1e-5)
	assert.InDelta(t, 1, project(far), 1e-5)
	assert.InDelta(t, proj[5]/1.5, proj[0], 1e-6)
}

func TestPutFloat32s(t *testing.T) {
	buf := make([]byte, 12)
	end := PutFloat32s(buf, 4, 1.5, -2)

	assert.Equal(t, 12, end)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
}
