package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoAdapter is returned when no GPU adapter or device could be obtained.
	ErrNoAdapter = errors.New("no compatible GPU adapter")

	// ErrSnapshotMismatch is returned when one encoder is asked to render two different snapshots.
	ErrSnapshotMismatch = errors.New("encoder already recorded a different scene snapshot")

	// ErrForeignResource is returned when a target, buffer or encoder from another backend is used.
	ErrForeignResource = errors.New("resource does not belong to this renderer")

	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("resource already released")

	// ErrNotMapped is returned by MappedRange before a successful map.
	ErrNotMapped = errors.New("staging buffer is not mapped")

	// ErrMapPending is returned when MapRead is called while a map is outstanding.
	ErrMapPending = errors.New("staging buffer map already pending")
)

const (
	defaultSurfaceWidth  = 512
	defaultSurfaceHeight = 512
	defaultWorkers       = 2
)

// SurfaceSource supplies the platform surface the renderer presents to.
// window.Window satisfies this interface.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	surfaceWidth         int
	surfaceHeight        int
	ambient              mgl32.Vec4
	presenter            func(pix []byte, width, height int)
	workers              int
}

// Renderer defines the interface for the rendering system.
//
// The Renderer hands out the per-frame resources the benchmark needs (surface image, off-screen
// target, staging buffer and command encoder) and hides whether they live on a GPU or in memory.
// The Renderer implements a backend which allows for multiple backend implementations to exist.
type Renderer interface {
	// BackendType returns the backend the renderer was created with.
	BackendType() RendererBackendType

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SurfaceSize returns the current surface size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	SurfaceSize() (int, int)

	// CopyAlignment returns the bytes-per-row alignment for texture-to-buffer copies.
	//
	// Returns:
	//   - int: the alignment in bytes (256 on every backend)
	CopyAlignment() int

	// AcquireSurface acquires the next presentable surface image. The caller must either Present
	// or Release it before acquiring another.
	//
	// Returns:
	//   - SurfaceTarget: the acquired image
	//   - error: an error if the surface image could not be acquired
	AcquireSurface() (SurfaceTarget, error)

	// CreateOffscreenTarget creates a BGRA8 render target usable as a copy source.
	//
	// Parameters:
	//   - width: target width in pixels
	//   - height: target height in pixels
	//
	// Returns:
	//   - Target: the new target
	//   - error: an error if creation fails
	CreateOffscreenTarget(width, height int) (Target, error)

	// CreateStagingBuffer creates a CPU-readable buffer that copy commands can write.
	//
	// Parameters:
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - StagingBuffer: the new buffer
	//   - error: an error if creation fails
	CreateStagingBuffer(size uint64) (StagingBuffer, error)

	// CreateEncoder creates a command encoder for one frame.
	//
	// Returns:
	//   - Encoder: the new encoder
	//   - error: an error if creation fails
	CreateEncoder() (Encoder, error)

	// Submit queues the encoder's commands for execution and releases the encoder.
	//
	// Parameters:
	//   - enc: an encoder from CreateEncoder
	//
	// Returns:
	//   - error: an error if the commands could not be finished or submitted
	Submit(enc Encoder) error

	// Poll drives outstanding work. Map callbacks only fire from inside Poll.
	//
	// Parameters:
	//   - wait: true to block until all submitted work has completed
	Poll(wait bool)

	// Device returns the wgpu device, or nil on the software backend.
	Device() *wgpu.Device

	// Queue returns the wgpu queue, or nil on the software backend.
	Queue() *wgpu.Queue

	// Release frees every backend resource. The renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type and surface.
// The surface is typically a window.Window. It is required by the WGPU backend and optional for the
// software backend, which falls back to WithSurfaceSize or 512x512.
//
// Parameters:
//   - backendType: the type of rendering backend to use (WGPU or Software)
//   - surface: the surface to present to, may be nil for the software backend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: ErrNoAdapter when no GPU could be used, or another initialization error
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		ambient:     mgl32.Vec4{0.03, 0.03, 0.03, 1},
		workers:     defaultWorkers,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	width, height := r.surfaceWidth, r.surfaceHeight
	if surface != nil {
		width, height = surface.Width(), surface.Height()
	}
	if width <= 0 || height <= 0 {
		width, height = defaultSurfaceWidth, defaultSurfaceHeight
	}

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.ambient, r.workers, r.presenter)
	case BackendTypeWGPU:
		if surface == nil {
			return nil, fmt.Errorf("wgpu backend requires a surface")
		}
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.ambient)
		if err != nil {
			return nil, err
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("unsupported renderer backend %s", backendType)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(width, height)
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.SetPresentMode(mode)
	// the present mode only takes effect on the next surface configuration
	w, h := r.backend.SurfaceSize()
	r.backend.ConfigureSurface(w, h)
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) CopyAlignment() int {
	return r.backend.CopyAlignment()
}

func (r *renderer) AcquireSurface() (SurfaceTarget, error) {
	return r.backend.AcquireSurface()
}

func (r *renderer) CreateOffscreenTarget(width, height int) (Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid off-screen target size %dx%d", width, height)
	}
	return r.backend.CreateOffscreenTarget(width, height)
}

func (r *renderer) CreateStagingBuffer(size uint64) (StagingBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("staging buffer size must be positive")
	}
	return r.backend.CreateStagingBuffer(size)
}

func (r *renderer) CreateEncoder() (Encoder, error) {
	return r.backend.CreateEncoder()
}

func (r *renderer) Submit(enc Encoder) error {
	if enc == nil {
		return fmt.Errorf("nil encoder")
	}
	return r.backend.Submit(enc)
}

func (r *renderer) Poll(wait bool) {
	r.backend.Poll(wait)
}

func (r *renderer) Device() *wgpu.Device {
	return r.backend.Device()
}

func (r *renderer) Queue() *wgpu.Queue {
	return r.backend.Queue()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}
