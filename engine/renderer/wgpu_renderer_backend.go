package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/Carmen-Shannon/oxy-bench/engine/readback"
	"github.com/Carmen-Shannon/oxy-bench/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/Carmen-Shannon/oxy-bench/internal/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// offscreenFormat is the color format of every off-screen target. Readback assumes 4 bytes per pixel
// in BGRA order, and the sRGB variant keeps exported images identical to the surface.
const offscreenFormat = wgpu.TextureFormatBGRA8UnormSrgb

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeFifo (VSync)
	width         int
	height        int
	ambient       mgl32.Vec4

	shaderModule    *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	uniformBuffer   *wgpu.Buffer
	bindGroup       *wgpu.BindGroup

	// lit describes the render state shared by the surface and off-screen pipelines
	lit         pipeline.Pipeline
	pipelines   map[wgpu.TextureFormat]*wgpu.RenderPipeline
	depthViews  map[[2]int]*wgpuDepthAttachment
	meshBuffers map[*loader.Mesh]*wgpuMeshBuffers

	// the surface image currently held between AcquireSurface and Present/Release
	frameSurface *wgpuSurfaceTarget
}

type wgpuDepthAttachment struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type wgpuMeshBuffers struct {
	vertex     *wgpu.Buffer
	index      *wgpu.Buffer
	indexCount uint32
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, ambient mgl32.Vec4) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		ambient:     ambient,
		lit:         newLitPipeline(),
		pipelines:   make(map[wgpu.TextureFormat]*wgpu.RenderPipeline),
		depthViews:  make(map[[2]int]*wgpuDepthAttachment),
		meshBuffers: make(map[*loader.Mesh]*wgpuMeshBuffers),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Bench Device",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request device: %w", ErrNoAdapter, err)
	}
	w.device = d
	w.queue = d.GetQueue()

	if err := w.initSceneResources(); err != nil {
		w.Release()
		return nil, err
	}
	return w, nil
}

// initSceneResources creates the shader module, uniform buffer and bind group shared by every pipeline.
func (b *wgpuRendererBackendImpl) initSceneResources() error {
	source, decls, err := processLitShader()
	if err != nil {
		return err
	}
	entries, err := bindGroupLayoutEntries(decls)
	if err != nil {
		return err
	}

	b.shaderModule, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "lit.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	b.bindGroupLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Scene Uniforms Layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	b.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Lit Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	b.uniformBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Scene Uniforms",
		Size:  sceneUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}

	b.bindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Scene Uniforms",
		Layout: b.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.uniformBuffer, Offset: 0, Size: sceneUniformSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height
	b.releaseDepthLocked()
	if width <= 0 || height <= 0 {
		// minimized; the surface is reconfigured once the window has an area again
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = pickSurfaceFormat(capabilities.Formats)

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	logger.Debug("surface configured",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.String("format", b.surfaceFormat.String()),
	)
}

// pickSurfaceFormat prefers BGRA8 sRGB so the surface and the off-screen target share a pipeline.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, want := range []wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm} {
		for _, f := range formats {
			if f == want {
				return f
			}
		}
	}
	return formats[0]
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) CopyAlignment() int {
	return wgpu.CopyBytesPerRowAlignment
}

func (b *wgpuRendererBackendImpl) AcquireSurface() (SurfaceTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// a surface image that was never presented or released would make wgpu-native fail with
	// "Surface image is already acquired"
	if b.frameSurface != nil {
		return nil, errors.New("previous surface image not yet presented")
	}
	if b.width <= 0 || b.height <= 0 {
		return nil, errors.New("surface has zero area")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}

	b.frameSurface = &wgpuSurfaceTarget{
		backend: b,
		texture: surfaceTexture,
		view:    view,
		width:   b.width,
		height:  b.height,
		format:  b.surfaceFormat,
	}
	return b.frameSurface, nil
}

func (b *wgpuRendererBackendImpl) CreateOffscreenTarget(width, height int) (Target, error) {
	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Offscreen Target",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        offscreenFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create off-screen texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("create off-screen view: %w", err)
	}
	return &wgpuOffscreenTarget{
		texture: texture,
		view:    view,
		width:   width,
		height:  height,
	}, nil
}

func (b *wgpuRendererBackendImpl) CreateStagingBuffer(size uint64) (StagingBuffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Staging Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	return &wgpuStagingBuffer{buffer: buf, size: size}, nil
}

func (b *wgpuRendererBackendImpl) CreateEncoder() (Encoder, error) {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuEncoder{backend: b, encoder: encoder}, nil
}

func (b *wgpuRendererBackendImpl) Submit(enc Encoder) error {
	e, ok := enc.(*wgpuEncoder)
	if !ok {
		return ErrForeignResource
	}
	if e.encoder == nil {
		return ErrReleased
	}
	defer e.Release()

	commandBuffer, err := e.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Poll(wait bool) {
	b.device.Poll(wait, nil)
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseDepthLocked()
	for m, mb := range b.meshBuffers {
		mb.vertex.Release()
		mb.index.Release()
		delete(b.meshBuffers, m)
	}
	for f, p := range b.pipelines {
		p.Release()
		delete(b.pipelines, f)
	}
	if b.bindGroup != nil {
		b.bindGroup.Release()
		b.bindGroup = nil
	}
	if b.uniformBuffer != nil {
		b.uniformBuffer.Release()
		b.uniformBuffer = nil
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
		b.pipelineLayout = nil
	}
	if b.bindGroupLayout != nil {
		b.bindGroupLayout.Release()
		b.bindGroupLayout = nil
	}
	if b.shaderModule != nil {
		b.shaderModule.Release()
		b.shaderModule = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) releaseDepthLocked() {
	for size, d := range b.depthViews {
		d.view.Release()
		d.texture.Release()
		delete(b.depthViews, size)
	}
}

// newLitPipeline describes the Lambert pipeline of lit.wgsl over interleaved position/normal vertices.
func newLitPipeline() pipeline.Pipeline {
	return pipeline.NewPipeline("Lit Render Pipeline",
		pipeline.WithVertexLayouts(wgpu.VertexBufferLayout{
			ArrayStride: vertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			},
		}),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithFrontFace(wgpu.FrontFaceCCW),
	)
}

// depthFor returns the depth attachment for a target size, creating it on first use.
func (b *wgpuRendererBackendImpl) depthFor(width, height int) (*wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := [2]int{width, height}
	if d, ok := b.depthViews[key]; ok {
		return d.view, nil
	}

	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.lit.DepthFormat(),
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, err
	}
	b.depthViews[key] = &wgpuDepthAttachment{texture: texture, view: view}
	return view, nil
}

// pipelineFor returns the lit render pipeline for a color format, creating it on first use.
func (b *wgpuRendererBackendImpl) pipelineFor(format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pipelines[format]; ok {
		return p, nil
	}

	created, err := b.device.CreateRenderPipeline(b.lit.Descriptor(b.shaderModule, b.pipelineLayout, format))
	if err != nil {
		return nil, fmt.Errorf("create render pipeline for %s: %w", format.String(), err)
	}
	b.pipelines[format] = created
	return created, nil
}

// meshFor uploads a mesh's vertex and index data on first use.
func (b *wgpuRendererBackendImpl) meshFor(m *loader.Mesh) (*wgpuMeshBuffers, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mb, ok := b.meshBuffers[m]; ok {
		return mb, nil
	}

	vertexData := interleaveVertices(m)
	indexData := indexBytes(m.Indices)

	vertex, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(vertex, 0, vertexData)

	index, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vertex.Release()
		return nil, err
	}
	b.queue.WriteBuffer(index, 0, indexData)

	mb := &wgpuMeshBuffers{vertex: vertex, index: index, indexCount: uint32(len(m.Indices))}
	b.meshBuffers[m] = mb
	logger.Debug("mesh uploaded",
		zap.String("mesh", m.Name),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", m.TriangleCount()),
	)
	return mb, nil
}

// wgpuColorTarget is implemented by every wgpu Target a render pass can draw into.
type wgpuColorTarget interface {
	Target
	colorView() *wgpu.TextureView
	colorFormat() wgpu.TextureFormat
}

type wgpuSurfaceTarget struct {
	backend *wgpuRendererBackendImpl
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
	height  int
	format  wgpu.TextureFormat
	done    bool
}

func (t *wgpuSurfaceTarget) Width() int                      { return t.width }
func (t *wgpuSurfaceTarget) Height() int                     { return t.height }
func (t *wgpuSurfaceTarget) colorView() *wgpu.TextureView    { return t.view }
func (t *wgpuSurfaceTarget) colorFormat() wgpu.TextureFormat { return t.format }

func (t *wgpuSurfaceTarget) Present() {
	if t.done {
		return
	}
	t.backend.surface.Present()
	t.Release()
}

func (t *wgpuSurfaceTarget) Release() {
	if t.done {
		return
	}
	t.done = true
	t.view.Release()
	t.texture.Release()

	t.backend.mu.Lock()
	if t.backend.frameSurface == t {
		t.backend.frameSurface = nil
	}
	t.backend.mu.Unlock()
}

type wgpuOffscreenTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
	height  int
	done    bool
}

func (t *wgpuOffscreenTarget) Width() int                      { return t.width }
func (t *wgpuOffscreenTarget) Height() int                     { return t.height }
func (t *wgpuOffscreenTarget) colorView() *wgpu.TextureView    { return t.view }
func (t *wgpuOffscreenTarget) colorFormat() wgpu.TextureFormat { return offscreenFormat }

func (t *wgpuOffscreenTarget) Release() {
	if t.done {
		return
	}
	t.done = true
	t.view.Release()
	t.texture.Release()
}

type wgpuStagingBuffer struct {
	buffer   *wgpu.Buffer
	size     uint64
	pending  atomic.Bool
	mapped   atomic.Bool
	released bool
}

func (s *wgpuStagingBuffer) Size() uint64 {
	return s.size
}

func (s *wgpuStagingBuffer) MapRead(callback func(err error)) error {
	if s.released {
		return ErrReleased
	}
	if !s.pending.CompareAndSwap(false, true) {
		return ErrMapPending
	}
	err := s.buffer.MapAsync(wgpu.MapModeRead, 0, s.size, func(status wgpu.BufferMapAsyncStatus) {
		s.pending.Store(false)
		if status != wgpu.BufferMapAsyncStatusSuccess {
			callback(fmt.Errorf("buffer map status %s", status.String()))
			return
		}
		s.mapped.Store(true)
		callback(nil)
	})
	if err != nil {
		s.pending.Store(false)
		return err
	}
	return nil
}

func (s *wgpuStagingBuffer) MappedRange() ([]byte, error) {
	if !s.mapped.Load() {
		return nil, ErrNotMapped
	}
	return s.buffer.GetMappedRange(0, uint(s.size)), nil
}

func (s *wgpuStagingBuffer) Unmap() {
	if s.mapped.CompareAndSwap(true, false) {
		s.buffer.Unmap()
	}
}

func (s *wgpuStagingBuffer) Release() {
	if s.released {
		return
	}
	s.Unmap()
	s.released = true
	s.buffer.Release()
}

type wgpuEncoder struct {
	backend  *wgpuRendererBackendImpl
	encoder  *wgpu.CommandEncoder
	snapshot *scene.Snapshot
}

func (e *wgpuEncoder) RenderScene(target Target, snap *scene.Snapshot) error {
	if e.encoder == nil {
		return ErrReleased
	}
	t, ok := target.(wgpuColorTarget)
	if !ok {
		return ErrForeignResource
	}
	if snap == nil {
		return errors.New("nil scene snapshot")
	}
	if e.snapshot != nil && e.snapshot != snap {
		return ErrSnapshotMismatch
	}
	if e.snapshot == nil {
		// queued writes land before the command buffer runs, so every pass of this encoder
		// reads the same uniforms
		e.backend.queue.WriteBuffer(e.backend.uniformBuffer, 0, marshalSceneUniforms(snap, e.backend.ambient))
		e.snapshot = snap
	}

	pipeline, err := e.backend.pipelineFor(t.colorFormat())
	if err != nil {
		return err
	}
	depthView, err := e.backend.depthFor(t.Width(), t.Height())
	if err != nil {
		return fmt.Errorf("create depth attachment: %w", err)
	}

	meshes := make([]*wgpuMeshBuffers, 0, len(snap.Meshes))
	for _, entry := range snap.Meshes {
		if entry.Mesh == nil || len(entry.Mesh.Indices) == 0 {
			continue
		}
		mb, err := e.backend.meshFor(entry.Mesh)
		if err != nil {
			return fmt.Errorf("upload mesh %d: %w", entry.ID, err)
		}
		meshes = append(meshes, mb)
	}

	bg := snap.Background
	pass := e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    t.colorView(),
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(bg[0]), G: float64(bg[1]), B: float64(bg[2]), A: float64(bg[3]),
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, e.backend.bindGroup, nil)
	for _, mb := range meshes {
		pass.SetVertexBuffer(0, mb.vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(mb.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(mb.indexCount, 1, 0, 0, 0)
	}
	pass.End()
	pass.Release()
	return nil
}

func (e *wgpuEncoder) CopyTargetToBuffer(src Target, dst StagingBuffer, layout readback.RowLayout) error {
	if e.encoder == nil {
		return ErrReleased
	}
	t, ok := src.(*wgpuOffscreenTarget)
	if !ok {
		return fmt.Errorf("%w: copy source must be an off-screen target", ErrForeignResource)
	}
	buf, ok := dst.(*wgpuStagingBuffer)
	if !ok {
		return ErrForeignResource
	}
	if err := validateCopy(t.width, t.height, buf.size, layout); err != nil {
		return err
	}

	e.encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf.buffer,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(layout.PaddedBytesPerRow),
				RowsPerImage: uint32(layout.Height),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(layout.Width),
			Height:             uint32(layout.Height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (e *wgpuEncoder) Release() {
	if e.encoder == nil {
		return
	}
	e.encoder.Release()
	e.encoder = nil
}

// validateCopy checks a texture-to-buffer copy against the layout before it is recorded.
func validateCopy(width, height int, bufferSize uint64, layout readback.RowLayout) error {
	if layout.Width != width || layout.Height != height {
		return fmt.Errorf("row layout %dx%d does not match target %dx%d", layout.Width, layout.Height, width, height)
	}
	if layout.BytesPerPixel != readback.BytesPerPixelBGRA8 {
		return fmt.Errorf("row layout uses %d bytes per pixel, targets are BGRA8", layout.BytesPerPixel)
	}
	if need := layout.BufferSize(); bufferSize < need {
		return fmt.Errorf("staging buffer holds %d bytes, copy needs %d", bufferSize, need)
	}
	return nil
}
