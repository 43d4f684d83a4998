// Package pipeline describes render pipeline state and turns it into WebGPU pipeline descriptors.
package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey labels the pipelines created from this description
	pipelineKey string

	vertexEntryPoint   string
	fragmentEntryPoint string
	vertexLayouts      []wgpu.VertexBufferLayout

	depthFormat       wgpu.TextureFormat
	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline describes the fixed-function state of a render pipeline independently of the color
// format it renders to. One description produces one WebGPU pipeline per target format, so the
// surface and the off-screen target can share it.
type Pipeline interface {
	// PipelineKey returns the key used to label pipelines built from this description.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// DepthTestEnabled returns whether depth testing is enabled.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writes are enabled.
	DepthWriteEnabled() bool

	// DepthFormat returns the depth attachment format render passes must use with this pipeline.
	//
	// Returns:
	//   - wgpu.TextureFormat: the depth format
	DepthFormat() wgpu.TextureFormat

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// FrontFace returns the front face winding order.
	FrontFace() wgpu.FrontFace

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// Descriptor builds the WebGPU descriptor for a render target format.
	//
	// Parameters:
	//   - module: the shader module holding both entry points
	//   - layout: the pipeline layout
	//   - format: the color target format
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: a descriptor ready for Device.CreateRenderPipeline
	Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, format wgpu.TextureFormat) *wgpu.RenderPipelineDescriptor
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description. Defaults are a depth-tested, depth-written
// triangle list with counter-clockwise front faces, no culling, no blending and "vs_main"/"fs_main"
// entry points.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the new description
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:        pipelineKey,
		vertexEntryPoint:   "vs_main",
		fragmentEntryPoint: "fs_main",
		depthFormat:        wgpu.TextureFormatDepth24Plus,
		depthTestEnabled:   true,
		depthWriteEnabled:  true,
		cullMode:           wgpu.CullModeNone,
		topology:           wgpu.PrimitiveTopologyTriangleList,
		frontFace:          wgpu.FrontFaceCCW,
		writeMask:          wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, format wgpu.TextureFormat) *wgpu.RenderPipelineDescriptor {
	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		target.Blend = p.blendState
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " " + format.String(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.vertexEntryPoint,
			Buffers:    p.vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.fragmentEntryPoint,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	if p.depthTestEnabled || p.depthWriteEnabled {
		compare := wgpu.CompareFunctionAlways
		if p.depthTestEnabled {
			compare = wgpu.CompareFunctionLess
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}
	return desc
}
