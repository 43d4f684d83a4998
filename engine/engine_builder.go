package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables periodic frame statistics.
//
// Parameters:
//   - enabled: if true, frame results are fed to the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the presentation window. Its event loop drives the frames and its resize,
// key, scroll, drag and close events are routed into the engine. Leave it unset for headless runs.
//
// Parameters:
//   - w: an open Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSurface sets the surface that is reconfigured when the window is resized.
//
// Parameters:
//   - r: usually the renderer.Renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(r Resizer) EngineBuilderOption {
	return func(e *engine) {
		e.surface = r
	}
}

// WithCamera sets the camera whose aspect follows the surface and whose controller receives input.
//
// Parameters:
//   - c: the scene camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithFrameLimit stops the run after n completed frames. 0 runs until quit.
//
// Parameters:
//   - n: the frame count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.frameLimit = n
	}
}

// WithSkipFailedFrames logs and skips frames that fail instead of ending the run.
//
// Parameters:
//   - skip: if true, failed frames are skipped
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSkipFailedFrames(skip bool) EngineBuilderOption {
	return func(e *engine) {
		e.skipFailed = skip
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
