package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
// The default is PresentModeVSync.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for benchmarking CPU vs GPU rendering performance.
// It has no effect on BackendTypeSoftware, which never touches a GPU driver.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithSurfaceSize sets the initial surface size used when no SurfaceSource is given.
//
// Parameters:
//   - width: surface width in pixels
//   - height: surface height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the surface size option to a renderer
func WithSurfaceSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.surfaceWidth = width
		r.surfaceHeight = height
	}
}

// WithAmbient sets the ambient term added to every lit fragment.
//
// Parameters:
//   - ambient: linear RGB in xyz, w is ignored
//
// Returns:
//   - RendererBuilderOption: a function that applies the ambient option to a renderer
func WithAmbient(ambient mgl32.Vec4) RendererBuilderOption {
	return func(r *renderer) {
		r.ambient = ambient
	}
}

// WithPresenter installs the callback the software backend hands presented surface images to.
// The pixel slice is tightly packed BGRA and is only valid during the call.
//
// Parameters:
//   - presenter: the callback, nil to drop presented images
//
// Returns:
//   - RendererBuilderOption: a function that applies the presenter option to a renderer
func WithPresenter(presenter func(pix []byte, width, height int)) RendererBuilderOption {
	return func(r *renderer) {
		r.presenter = presenter
	}
}

// WithWorkers sets how many workers the software backend executes submitted encoders on.
//
// Parameters:
//   - n: worker count, values below 1 are treated as 1
//
// Returns:
//   - RendererBuilderOption: a function that applies the workers option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = max(n, 1)
	}
}
