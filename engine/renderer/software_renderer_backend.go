package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-bench/engine/light"
	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/Carmen-Shannon/oxy-bench/engine/readback"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/Carmen-Shannon/oxy-bench/internal/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const (
	softwareQueueSize   = 16
	softwareIdleTimeout = time.Second
)

// softwareRendererBackendImpl rasterizes on the CPU with fauxgl. Submitted encoders run on a worker
// pool so the CPU side of the frame sees the same asynchronous submit, poll and map sequence as
// on a GPU.
type softwareRendererBackendImpl struct {
	mu          *sync.Mutex
	width       int
	height      int
	presentMode PresentMode
	ambient     mgl32.Vec4
	presenter   func(pix []byte, width, height int)

	pool     worker.DynamicWorkerPool
	inflight sync.WaitGroup
	busy     atomic.Int64
	taskSeq  int
	maps     []*softwareStagingBuffer
	// first failed submission since the last resolved map
	taskErr error

	// guards the rasterizer state touched by worker tasks
	rasterMu *sync.Mutex
	contexts map[[2]int]*fauxgl.Context
	meshes   map[*loader.Mesh]*fauxgl.Mesh

	surfacePix   []byte
	frameSurface *softwareSurfaceTarget
	released     bool
}

var _ RendererBackend = &softwareRendererBackendImpl{}

func newSoftwareRendererBackend(ambient mgl32.Vec4, workers int, presenter func(pix []byte, width, height int)) *softwareRendererBackendImpl {
	return &softwareRendererBackendImpl{
		mu:        &sync.Mutex{},
		ambient:   ambient,
		presenter: presenter,
		pool:      worker.NewDynamicWorkerPool(max(workers, 1), softwareQueueSize, softwareIdleTimeout),
		rasterMu:  &sync.Mutex{},
		contexts:  make(map[[2]int]*fauxgl.Context),
		meshes:    make(map[*loader.Mesh]*fauxgl.Mesh),
	}
}

func (b *softwareRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height
	b.surfacePix = nil

	// the depth buffer lives in the fauxgl context, so drop every context of the old size
	b.rasterMu.Lock()
	for size := range b.contexts {
		delete(b.contexts, size)
	}
	b.rasterMu.Unlock()
}

func (b *softwareRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *softwareRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *softwareRendererBackendImpl) CopyAlignment() int {
	return wgpu.CopyBytesPerRowAlignment
}

func (b *softwareRendererBackendImpl) AcquireSurface() (SurfaceTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, ErrReleased
	}
	if b.frameSurface != nil {
		return nil, errors.New("previous surface image not yet presented")
	}
	if b.width <= 0 || b.height <= 0 {
		return nil, errors.New("surface has zero area")
	}

	size := b.width * b.height * readback.BytesPerPixelBGRA8
	if len(b.surfacePix) != size {
		b.surfacePix = make([]byte, size)
	}
	b.frameSurface = &softwareSurfaceTarget{
		backend: b,
		softwareImage: softwareImage{
			pix:    b.surfacePix,
			width:  b.width,
			height: b.height,
		},
	}
	return b.frameSurface, nil
}

func (b *softwareRendererBackendImpl) CreateOffscreenTarget(width, height int) (Target, error) {
	return &softwareOffscreenTarget{
		softwareImage: softwareImage{
			pix:    make([]byte, width*height*readback.BytesPerPixelBGRA8),
			width:  width,
			height: height,
		},
	}, nil
}

func (b *softwareRendererBackendImpl) CreateStagingBuffer(size uint64) (StagingBuffer, error) {
	return &softwareStagingBuffer{backend: b, data: make([]byte, size)}, nil
}

func (b *softwareRendererBackendImpl) CreateEncoder() (Encoder, error) {
	return &softwareEncoder{backend: b}, nil
}

func (b *softwareRendererBackendImpl) Submit(enc Encoder) error {
	e, ok := enc.(*softwareEncoder)
	if !ok {
		return ErrForeignResource
	}
	if e.released {
		return ErrReleased
	}
	commands := e.commands
	e.Release()

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return ErrReleased
	}
	b.taskSeq++
	id := b.taskSeq
	b.mu.Unlock()

	b.inflight.Add(1)
	b.busy.Add(1)
	b.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: len(commands),
		Do: func() (any, error) {
			defer func() {
				b.busy.Add(-1)
				b.inflight.Done()
			}()
			for i, cmd := range commands {
				if err := cmd(); err != nil {
					logger.Error("software command failed",
						zap.Int("submission", id),
						zap.Int("command", i),
						zap.Error(err),
					)
					b.mu.Lock()
					if b.taskErr == nil {
						b.taskErr = fmt.Errorf("submission %d: %w", id, err)
					}
					b.mu.Unlock()
					return nil, err
				}
			}
			return nil, nil
		},
	})
	return nil
}

func (b *softwareRendererBackendImpl) Poll(wait bool) {
	if wait {
		b.inflight.Wait()
	}
	if b.busy.Load() > 0 {
		return
	}

	b.mu.Lock()
	ready := b.maps
	b.maps = nil
	taskErr := b.taskErr
	if len(ready) > 0 {
		b.taskErr = nil
	}
	b.mu.Unlock()

	for _, s := range ready {
		s.resolve(taskErr)
	}
}

func (b *softwareRendererBackendImpl) Device() *wgpu.Device {
	return nil
}

func (b *softwareRendererBackendImpl) Queue() *wgpu.Queue {
	return nil
}

func (b *softwareRendererBackendImpl) Release() {
	b.inflight.Wait()

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.released = true
	pending := b.maps
	b.maps = nil
	b.mu.Unlock()

	for _, s := range pending {
		s.resolve(ErrReleased)
	}
	b.pool.Stop()

	b.rasterMu.Lock()
	defer b.rasterMu.Unlock()
	b.contexts = make(map[[2]int]*fauxgl.Context)
	b.meshes = make(map[*loader.Mesh]*fauxgl.Mesh)
}

func (b *softwareRendererBackendImpl) queueMap(s *softwareStagingBuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maps = append(b.maps, s)
}

// rasterize draws snap into img. Called from worker tasks only.
func (b *softwareRendererBackendImpl) rasterize(img *softwareImage, snap *scene.Snapshot) error {
	if img.released.Load() {
		return ErrReleased
	}

	b.rasterMu.Lock()
	defer b.rasterMu.Unlock()

	ctx := b.contextFor(img.width, img.height)
	bg := snap.Background
	ctx.ClearColorBufferWith(fauxgl.Color{
		R: float64(linearToSRGB(bg[0])),
		G: float64(linearToSRGB(bg[1])),
		B: float64(linearToSRGB(bg[2])),
		A: float64(bg[3]),
	})
	ctx.ClearDepthBuffer()
	ctx.Shader = &litShader{
		viewProjection: snap.ViewProjection,
		lights:         snap.Lights,
		ambient:        b.ambient,
	}

	for _, entry := range snap.Meshes {
		if entry.Mesh == nil || len(entry.Mesh.Indices) == 0 {
			continue
		}
		ctx.DrawMesh(b.meshFor(entry.Mesh))
	}

	copyToBGRA(img.pix, ctx.Image(), img.width, img.height)
	return nil
}

// contextFor must be called with rasterMu held.
func (b *softwareRendererBackendImpl) contextFor(width, height int) *fauxgl.Context {
	key := [2]int{width, height}
	if ctx, ok := b.contexts[key]; ok {
		return ctx
	}
	ctx := fauxgl.NewContext(width, height)
	ctx.FrontFace = fauxgl.FaceCCW
	ctx.Cull = fauxgl.CullBack
	b.contexts[key] = ctx
	return ctx
}

// meshFor must be called with rasterMu held.
func (b *softwareRendererBackendImpl) meshFor(m *loader.Mesh) *fauxgl.Mesh {
	if fm, ok := b.meshes[m]; ok {
		return fm
	}

	vertexAt := func(i uint32) fauxgl.Vertex {
		p := m.Positions[i]
		v := fauxgl.Vertex{Position: fauxgl.Vector{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}}
		if int(i) < len(m.Normals) {
			n := m.Normals[i]
			v.Normal = fauxgl.Vector{X: float64(n[0]), Y: float64(n[1]), Z: float64(n[2])}
		}
		return v
	}

	count := uint32(len(m.Positions))
	triangles := make([]*fauxgl.Triangle, 0, len(m.Indices)/3)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, c, d := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if a >= count || c >= count || d >= count {
			continue
		}
		triangles = append(triangles, &fauxgl.Triangle{V1: vertexAt(a), V2: vertexAt(c), V3: vertexAt(d)})
	}

	fm := fauxgl.NewTriangleMesh(triangles)
	b.meshes[m] = fm
	return fm
}

// litShader is the fauxgl counterpart of lit.wgsl. Positions stay in world space so the fragment
// stage receives interpolated world positions, like the WGSL varyings.
type litShader struct {
	viewProjection mgl32.Mat4
	lights         []light.GPULight
	ambient        mgl32.Vec4
}

func (s *litShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	clip := s.viewProjection.Mul4x1(mgl32.Vec4{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z), 1})
	v.Output = fauxgl.VectorW{X: float64(clip[0]), Y: float64(clip[1]), Z: float64(clip[2]), W: float64(clip[3])}
	return v
}

func (s *litShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	world := mgl32.Vec3{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
	normal := mgl32.Vec3{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
	c := shadeLambert(s.lights, s.ambient, world, normal)
	return fauxgl.Color{
		R: float64(linearToSRGB(c[0])),
		G: float64(linearToSRGB(c[1])),
		B: float64(linearToSRGB(c[2])),
		A: 1,
	}
}

// copyToBGRA writes img into dst as tightly packed BGRA rows.
func copyToBGRA(dst []byte, img image.Image, width, height int) {
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < height; y++ {
			row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+width*4]
			out := dst[y*width*4 : (y+1)*width*4]
			for x := 0; x < width; x++ {
				out[x*4+0] = row[x*4+2]
				out[x*4+1] = row[x*4+1]
				out[x*4+2] = row[x*4+0]
				out[x*4+3] = row[x*4+3]
			}
		}
		return
	}

	bounds := img.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := (y*width + x) * 4
			dst[i+0], dst[i+1], dst[i+2], dst[i+3] = c.B, c.G, c.R, c.A
		}
	}
}

type softwareImage struct {
	pix      []byte
	width    int
	height   int
	released atomic.Bool
}

func (i *softwareImage) Width() int              { return i.width }
func (i *softwareImage) Height() int             { return i.height }
func (i *softwareImage) image() *softwareImage   { return i }
func (i *softwareImage) markReleased() (ok bool) { return i.released.CompareAndSwap(false, true) }

// softwareColorTarget is implemented by every software Target a render pass can draw into.
type softwareColorTarget interface {
	Target
	image() *softwareImage
}

type softwareOffscreenTarget struct {
	softwareImage
}

func (t *softwareOffscreenTarget) Release() {
	t.markReleased()
}

type softwareSurfaceTarget struct {
	softwareImage
	backend *softwareRendererBackendImpl
}

func (t *softwareSurfaceTarget) Present() {
	if t.released.Load() {
		return
	}
	// presentation is ordered after every submitted command, as on a GPU queue
	t.backend.inflight.Wait()
	if t.backend.presenter != nil {
		t.backend.presenter(t.pix, t.width, t.height)
	}
	t.Release()
}

func (t *softwareSurfaceTarget) Release() {
	if !t.markReleased() {
		return
	}
	t.backend.mu.Lock()
	if t.backend.frameSurface == t {
		t.backend.frameSurface = nil
	}
	t.backend.mu.Unlock()
}

type softwareStagingBuffer struct {
	backend  *softwareRendererBackendImpl
	data     []byte
	callback func(err error)
	pending  atomic.Bool
	mapped   atomic.Bool
	released atomic.Bool
}

func (s *softwareStagingBuffer) Size() uint64 {
	return uint64(len(s.data))
}

func (s *softwareStagingBuffer) MapRead(callback func(err error)) error {
	if s.released.Load() {
		return ErrReleased
	}
	if s.mapped.Load() || !s.pending.CompareAndSwap(false, true) {
		return ErrMapPending
	}
	s.callback = callback
	s.backend.queueMap(s)
	return nil
}

// resolve completes a pending map, failing it when the buffer was released or a submission
// failed before the copy could land.
func (s *softwareStagingBuffer) resolve(err error) {
	cb := s.callback
	s.callback = nil
	s.pending.Store(false)
	if s.released.Load() {
		err = ErrReleased
	}
	if err != nil {
		cb(fmt.Errorf("map aborted: %w", err))
		return
	}
	s.mapped.Store(true)
	cb(nil)
}

func (s *softwareStagingBuffer) MappedRange() ([]byte, error) {
	if !s.mapped.Load() {
		return nil, ErrNotMapped
	}
	return s.data, nil
}

func (s *softwareStagingBuffer) Unmap() {
	s.mapped.Store(false)
}

func (s *softwareStagingBuffer) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	s.mapped.Store(false)
}

type softwareEncoder struct {
	backend  *softwareRendererBackendImpl
	commands []func() error
	snapshot *scene.Snapshot
	released bool
}

func (e *softwareEncoder) RenderScene(target Target, snap *scene.Snapshot) error {
	if e.released {
		return ErrReleased
	}
	t, ok := target.(softwareColorTarget)
	if !ok {
		return ErrForeignResource
	}
	if snap == nil {
		return errors.New("nil scene snapshot")
	}
	if e.snapshot != nil && e.snapshot != snap {
		return ErrSnapshotMismatch
	}
	e.snapshot = snap

	img := t.image()
	e.commands = append(e.commands, func() error {
		return e.backend.rasterize(img, snap)
	})
	return nil
}

func (e *softwareEncoder) CopyTargetToBuffer(src Target, dst StagingBuffer, layout readback.RowLayout) error {
	if e.released {
		return ErrReleased
	}
	t, ok := src.(*softwareOffscreenTarget)
	if !ok {
		return fmt.Errorf("%w: copy source must be an off-screen target", ErrForeignResource)
	}
	buf, ok := dst.(*softwareStagingBuffer)
	if !ok {
		return ErrForeignResource
	}
	if err := validateCopy(t.width, t.height, buf.Size(), layout); err != nil {
		return err
	}

	e.commands = append(e.commands, func() error {
		if t.released.Load() || buf.released.Load() {
			return ErrReleased
		}
		return readback.PadRows(buf.data, t.pix, layout)
	})
	return nil
}

func (e *softwareEncoder) Release() {
	e.released = true
	e.commands = nil
}
