package renderer

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-bench/common"
	"github.com/Carmen-Shannon/oxy-bench/engine/light"
	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/Carmen-Shannon/oxy-bench/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/lit.wgsl
var litShaderSource string

//go:embed assets/scene_uniforms.wgsl
var sceneUniformsSource string

const (
	structLight         shader.AnnotationArg = "light"
	structSceneUniforms shader.AnnotationArg = "scene_uniforms"
)

// uniformSizes is the minimum binding size of each struct the lit shader binds.
var uniformSizes = map[shader.AnnotationArg]uint64{
	structSceneUniforms: sceneUniformSize,
}

const (
	// sceneUniformLightsOffset is where the Light array starts inside SceneUniforms.
	sceneUniformLightsOffset = 96

	// sceneUniformSize matches the WGSL SceneUniforms struct.
	// Layout: view_proj mat4 (0), eye vec3 (64), light_count u32 (76), ambient vec4 (80), lights (96).
	sceneUniformSize = sceneUniformLightsOffset + light.MaxGPULights*32

	// vertexStride is the size of one interleaved vertex: position vec3 + normal vec3.
	vertexStride = 24
)

// marshalSceneUniforms packs a snapshot into the SceneUniforms layout of the lit shader.
func marshalSceneUniforms(snap *scene.Snapshot, ambient mgl32.Vec4) []byte {
	buf := make([]byte, sceneUniformSize)

	off := 0
	for _, v := range snap.ViewProjection {
		off = common.PutFloat32s(buf, off, v)
	}
	common.PutFloat32s(buf, 64, snap.Eye[0], snap.Eye[1], snap.Eye[2])

	count := min(len(snap.Lights), light.MaxGPULights)
	binary.LittleEndian.PutUint32(buf[76:80], uint32(count))
	common.PutFloat32s(buf, 80, ambient[0], ambient[1], ambient[2], ambient[3])

	for i := 0; i < count; i++ {
		start := sceneUniformLightsOffset + i*32
		snap.Lights[i].MarshalTo(buf[start : start+32])
	}
	return buf
}

// interleaveVertices packs positions and normals into vertexStride-sized records.
// Missing normals are written as zero.
func interleaveVertices(m *loader.Mesh) []byte {
	buf := make([]byte, len(m.Positions)*vertexStride)
	for i, p := range m.Positions {
		var n mgl32.Vec3
		if i < len(m.Normals) {
			n = m.Normals[i]
		}
		common.PutFloat32s(buf, i*vertexStride, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	return buf
}

func indexBytes(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// shadeLambert is the CPU twin of fs_main in lit.wgsl. It returns linear RGB.
func shadeLambert(lights []light.GPULight, ambient mgl32.Vec4, world, normal mgl32.Vec3) mgl32.Vec3 {
	color := ambient.Vec3()
	n := normal
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	for i := range lights {
		g := &lights[i]
		if g.Enabled == 0 {
			continue
		}
		toLight := g.Position.Sub(world)
		d := toLight.Len()
		ndotl := math32.Max(n.Dot(toLight.Mul(1/math32.Max(d, 1e-5))), 0)
		color = color.Add(g.Radiance(d).Mul(ndotl))
	}
	return color
}

// linearToSRGB applies the sRGB transfer function the GPU applies when writing to an *Srgb format.
func linearToSRGB(c float32) float32 {
	switch {
	case c <= 0:
		return 0
	case c >= 1:
		return 1
	case c <= 0.0031308:
		return c * 12.92
	default:
		return 1.055*math32.Pow(c, 1/2.4) - 0.055
	}
}

// processLitShader expands the @oxy directives of lit.wgsl.
func processLitShader() (string, []shader.Annotation, error) {
	pp := shader.NewPreProcessor(
		shader.WithStruct(structLight, light.GPULightSource, "Light"),
		shader.WithStruct(structSceneUniforms, sceneUniformsSource, "SceneUniforms"),
	)
	src, err := pp.Process(litShaderSource)
	if err != nil {
		return "", nil, fmt.Errorf("pre-process lit.wgsl: %w", err)
	}
	return src, pp.Declarations(), nil
}

// bindGroupLayoutEntries builds the group 0 layout from the shader's binding declarations.
func bindGroupLayoutEntries(decls []shader.Annotation) ([]wgpu.BindGroupLayoutEntry, error) {
	var entries []wgpu.BindGroupLayoutEntry
	for _, d := range decls {
		if d.Group != 0 {
			return nil, fmt.Errorf("line %d: only bind group 0 is supported, got %d", d.Line, d.Group)
		}
		var bindingType wgpu.BufferBindingType
		switch d.AddressSpace() {
		case shader.AnnotationArgStorageTypeUniform:
			bindingType = wgpu.BufferBindingTypeUniform
		case shader.AnnotationArgStorageTypeRead:
			bindingType = wgpu.BufferBindingTypeReadOnlyStorage
		default:
			bindingType = wgpu.BufferBindingTypeStorage
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(d.Binding),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           bindingType,
				MinBindingSize: uniformSizes[d.StructType()],
			},
		})
	}
	return entries, nil
}
