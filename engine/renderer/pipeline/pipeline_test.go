package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	p := NewPipeline("lit")
	desc := p.Descriptor(nil, nil, wgpu.TextureFormatBGRA8Unorm)

	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	require.NotNil(t, desc.Fragment)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	require.Len(t, desc.Fragment.Targets, 1)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, desc.Fragment.Targets[0].Format)
	assert.Nil(t, desc.Fragment.Targets[0].Blend)
	assert.Equal(t, wgpu.CullModeNone, desc.Primitive.CullMode)
	assert.Equal(t, uint32(1), desc.Multisample.Count)

	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, wgpu.TextureFormatDepth24Plus, desc.DepthStencil.Format)
	assert.Equal(t, wgpu.CompareFunctionLess, desc.DepthStencil.DepthCompare)
	assert.True(t, desc.DepthStencil.DepthWriteEnabled)
}

func TestOneDescriptionPerFormat(t *testing.T) {
	layout := wgpu.VertexBufferLayout{ArrayStride: 24, StepMode: wgpu.VertexStepModeVertex}
	p := NewPipeline("lit",
		WithVertexLayouts(layout),
		WithCullMode(wgpu.CullModeBack),
		WithFrontFace(wgpu.FrontFaceCCW),
	)

	srgb := p.Descriptor(nil, nil, wgpu.TextureFormatBGRA8UnormSrgb)
	linear := p.Descriptor(nil, nil, wgpu.TextureFormatBGRA8Unorm)

	assert.NotEqual(t, srgb.Label, linear.Label)
	assert.Equal(t, srgb.Primitive, linear.Primitive)
	assert.Equal(t, []wgpu.VertexBufferLayout{layout}, srgb.Vertex.Buffers)
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
}

func TestDepthAndBlendOptions(t *testing.T) {
	noDepth := NewPipeline("overlay", WithDepthTestEnabled(false), WithDepthWriteEnabled(false), WithBlendEnabled(true))
	desc := noDepth.Descriptor(nil, nil, wgpu.TextureFormatBGRA8Unorm)
	assert.Nil(t, desc.DepthStencil)
	assert.NotNil(t, desc.Fragment.Targets[0].Blend)

	writeOnly := NewPipeline("prepass", WithDepthTestEnabled(false))
	desc = writeOnly.Descriptor(nil, nil, wgpu.TextureFormatBGRA8Unorm)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, wgpu.CompareFunctionAlways, desc.DepthStencil.DepthCompare)
}
