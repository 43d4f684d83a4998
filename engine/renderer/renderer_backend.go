package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-bench/engine/readback"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU rasterizer. It needs no GPU and no display, which makes
	// it the backend for headless runs and tests.
	BackendTypeSoftware
)

// String returns the config name of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSoftware:
		return "software"
	default:
		return fmt.Sprintf("RendererBackendType(%d)", int(t))
	}
}

// ParseBackendType maps a config name to a RendererBackendType.
//
// Parameters:
//   - name: "wgpu" or "software", case-insensitive
//
// Returns:
//   - RendererBackendType: the matching backend type
//   - error: an error if the name is unknown
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wgpu", "":
		return BackendTypeWGPU, nil
	case "software":
		return BackendTypeSoftware, nil
	default:
		return 0, fmt.Errorf("unknown renderer backend %q", name)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps a config name to a PresentMode.
//
// Parameters:
//   - name: "vsync" or "uncapped", case-insensitive
//
// Returns:
//   - PresentMode: the matching mode
//   - error: an error if the name is unknown
func ParsePresentMode(name string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vsync", "":
		return PresentModeVSync, nil
	case "uncapped":
		return PresentModeUncapped, nil
	default:
		return 0, fmt.Errorf("unknown present mode %q", name)
	}
}

// RendererBackend is the top-level backend interface for the Renderer.
// Every backend produces the same resource types so the frame pipeline never needs to know
// which one it is driving.
type RendererBackend interface {
	// ConfigureSurface is a wrapper for boilerplate logic required when the surface size changes,
	// such as when the window is resized. Size-dependent attachments are rebuilt.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SurfaceSize returns the size the surface was last configured with.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	SurfaceSize() (int, int)

	// CopyAlignment returns the row alignment in bytes that texture-to-buffer copies must honor.
	CopyAlignment() int

	// AcquireSurface acquires the next presentable surface image.
	//
	// Returns:
	//   - SurfaceTarget: the acquired image
	//   - error: an error if no image could be acquired
	AcquireSurface() (SurfaceTarget, error)

	// CreateOffscreenTarget creates a BGRA8 render target that can be copied into a staging buffer.
	//
	// Parameters:
	//   - width: target width in pixels
	//   - height: target height in pixels
	//
	// Returns:
	//   - Target: the new target
	//   - error: an error if the target could not be created
	CreateOffscreenTarget(width, height int) (Target, error)

	// CreateStagingBuffer creates a CPU-readable buffer the GPU can copy into.
	//
	// Parameters:
	//   - size: buffer size in bytes
	//
	// Returns:
	//   - StagingBuffer: the new buffer
	//   - error: an error if the buffer could not be created
	CreateStagingBuffer(size uint64) (StagingBuffer, error)

	// CreateEncoder creates a command encoder that records render and copy commands.
	CreateEncoder() (Encoder, error)

	// Submit finishes the encoder and queues its commands for execution. The encoder is released.
	Submit(enc Encoder) error

	// Poll drives pending asynchronous work, including buffer map callbacks.
	//
	// Parameters:
	//   - wait: true to block until all submitted work has completed
	Poll(wait bool)

	// Device returns the wgpu device, or nil for backends without one.
	Device() *wgpu.Device

	// Queue returns the wgpu queue, or nil for backends without one.
	Queue() *wgpu.Queue

	// Release frees every resource the backend owns.
	Release()
}

// Target is an image a render pass can draw into.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Release frees the target. Releasing twice is a no-op.
	Release()
}

// SurfaceTarget is a Target backed by the presentable surface.
type SurfaceTarget interface {
	Target

	// Present shows the image on the display and releases it.
	Present()
}

// Encoder records the commands of one frame.
type Encoder interface {
	// RenderScene records a render pass that clears target and draws every mesh of snap.
	// All RenderScene calls on one encoder must use the same snapshot.
	//
	// Parameters:
	//   - target: the image to draw into
	//   - snap: the scene state to draw
	//
	// Returns:
	//   - error: ErrSnapshotMismatch if snap differs from an earlier call, or a recording error
	RenderScene(target Target, snap *scene.Snapshot) error

	// CopyTargetToBuffer records a copy of src into dst using the padded row stride of layout.
	//
	// Parameters:
	//   - src: an off-screen target created by CreateOffscreenTarget
	//   - dst: the staging buffer, at least layout.BufferSize() bytes
	//   - layout: the row layout describing src
	//
	// Returns:
	//   - error: an error if the copy cannot be recorded
	CopyTargetToBuffer(src Target, dst StagingBuffer, layout readback.RowLayout) error

	// Release drops the encoder without submitting it.
	Release()
}

// StagingBuffer is a CPU-readable buffer that receives copied pixels.
type StagingBuffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// MapRead requests read access. The callback fires from Poll once the buffer is readable, or
	// with an error if the mapping failed.
	//
	// Parameters:
	//   - callback: invoked exactly once with the mapping result
	//
	// Returns:
	//   - error: an error if the request could not be issued
	MapRead(callback func(err error)) error

	// MappedRange returns the mapped bytes. Only valid between a successful map and Unmap.
	MappedRange() ([]byte, error)

	// Unmap ends read access. Unmapping an unmapped buffer is a no-op.
	Unmap()

	// Release frees the buffer. Releasing twice is a no-op.
	Release()
}
