package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxGPULights is the number of light slots in the scene uniform buffer.
// The benchmark rig uses three; the rest stay zeroed.
const MaxGPULights = 8

// GPULightSource is the WGSL definition of the Light struct, matching the GPULight layout.
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of a single point light.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 32 bytes (WGSL uniform aligned).
type GPULight struct {
	Position  mgl32.Vec3 // offset  0: world-space position (vec3<f32>)
	Intensity float32    // offset 12: scalar multiplier
	Color     mgl32.Vec3 // offset 16: RGB color (vec3<f32>)
	Enabled   uint32     // offset 28: 1 = on, 0 = off
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 32)
	g.MarshalTo(buf)
	return buf
}

// MarshalTo writes the light into the first 32 bytes of buf.
//
// Parameters:
//   - buf: destination, at least 32 bytes long
func (g *GPULight) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], g.Enabled)
}

// Radiance returns the light's color scaled by intensity and inverse-square falloff
// at distance d. Both render backends use this attenuation.
//
// Parameters:
//   - d: distance from the light to the shaded point
//
// Returns:
//   - mgl32.Vec3: incident radiance
func (g *GPULight) Radiance(d float32) mgl32.Vec3 {
	if g.Enabled == 0 {
		return mgl32.Vec3{}
	}
	falloff := g.Intensity / (1 + d*d)
	return g.Color.Mul(falloff)
}
