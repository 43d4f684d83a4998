// Package engine drives a benchmark run: it owns the frame loop, reacts to window resizes and
// input, and stops on a frame limit, a quit request, or a fatal frame error.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-bench/common"
	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/frame"
	"github.com/Carmen-Shannon/oxy-bench/engine/profiler"
	"github.com/Carmen-Shannon/oxy-bench/engine/window"
	"github.com/Carmen-Shannon/oxy-bench/internal/logger"
	"go.uber.org/zap"
)

const (
	// maxConsecutiveFailures ends a run that skips failed frames once this many fail in a row.
	maxConsecutiveFailures = 100

	// zeroSurfaceBackoff is how long a headless loop waits while the surface has no area.
	zeroSurfaceBackoff = 10 * time.Millisecond
)

// ErrTooManyFailures is returned when skip-failed-frames mode gives up.
var ErrTooManyFailures = errors.New("too many consecutive frame failures")

// Resizer reconfigures the presentation surface. renderer.Renderer satisfies it.
type Resizer interface {
	Resize(width, height int)
}

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	window       window.Window
	surface      Resizer
	camera       camera.Camera
	orchestrator frame.Orchestrator

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameLimit       uint64
	renderFrameLimit time.Duration
	skipFailed       bool

	quitChannel chan struct{}
	quitOnce    sync.Once

	pendingResize *[2]int
	frames        uint64
	failures      int
	err           error
}

// Engine is the main entry point of a benchmark run.
//
// The engine runs every frame on the goroutine that calls Run, which it locks to its OS thread.
// With a window the frame loop is driven by the window's event loop. Without one it loops on its
// own. Quit requests, window close and context cancellation are observed between frames.
type Engine interface {
	// Run renders frames until the frame limit is reached, Quit is called, the window closes,
	// ctx is cancelled, or a frame fails fatally.
	//
	// Parameters:
	//   - ctx: cancels the run; an in-flight frame stops at its map wait
	//
	// Returns:
	//   - error: the fatal frame error, or nil when the run ended normally
	Run(ctx context.Context) error

	// Quit asks the run to stop before the next frame. Safe to call from any goroutine and
	// more than once.
	Quit()

	// Frames returns the number of frames completed so far.
	//
	// Returns:
	//   - uint64: the completed frame count
	Frames() uint64

	// Window returns the presentation window, or nil for headless runs.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Profiler returns the profiler that receives frame results when profiling is enabled.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler instance
	Profiler() *profiler.Profiler

	// EnableProfiler turns on periodic frame statistics.
	EnableProfiler()

	// DisableProfiler turns off periodic frame statistics.
	DisableProfiler()
}

// NewEngine creates a new Engine around a frame orchestrator.
//
// Parameters:
//   - orchestrator: produces the frames
//   - options: a variadic list of EngineBuilderOption functions
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(orchestrator frame.Orchestrator, options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:           &sync.Mutex{},
		orchestrator: orchestrator,
		quitChannel:  make(chan struct{}),
		profiler:     profiler.NewProfiler(time.Second),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.bindWindow()
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

func (e *engine) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if e.window != nil {
		e.window.SetFrameCallback(func() {
			if !e.step(ctx) {
				e.window.RequestClose()
			}
		})
		e.window.Run()
	} else {
		for e.step(ctx) {
		}
	}

	if e.profilingEnabled {
		e.profiler.LogSummary()
	}
	logger.Info("benchmark finished", zap.Uint64("frames", e.Frames()), zap.Error(e.err))
	return e.err
}

// step renders one frame and reports whether the loop should continue.
func (e *engine) step(ctx context.Context) bool {
	select {
	case <-e.quitChannel:
		return false
	default:
	}
	if ctx.Err() != nil {
		return false
	}

	e.applyResize()

	start := time.Now()
	res, err := e.orchestrator.RenderFrame(ctx)
	switch {
	case errors.Is(err, frame.ErrZeroSurface):
		// minimized: keep pumping events until the surface has area again
		if e.window == nil {
			time.Sleep(zeroSurfaceBackoff)
		}
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case err != nil:
		return e.frameFailed(res, err)
	}

	e.mu.Lock()
	e.frames++
	done := e.frameLimit > 0 && e.frames >= e.frameLimit
	e.mu.Unlock()
	e.failures = 0

	if e.profilingEnabled {
		e.profiler.Record(res)
	}
	if done {
		return false
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	return true
}

func (e *engine) frameFailed(res *frame.Result, err error) bool {
	fields := []zap.Field{zap.Error(err)}
	if res != nil {
		fields = append(fields, zap.Uint64("frame", res.Index))
	}

	if !e.skipFailed {
		logger.Error("frame failed", fields...)
		e.err = err
		return false
	}

	e.failures++
	if e.profilingEnabled {
		e.profiler.Skip()
	}
	logger.Warn("frame skipped", append(fields, zap.Int("consecutive", e.failures))...)
	if e.failures >= maxConsecutiveFailures {
		e.err = fmt.Errorf("%w: last error: %w", ErrTooManyFailures, err)
		return false
	}
	return true
}

// bindWindow routes window events into the engine.
func (e *engine) bindWindow() {
	e.window.SetResizeCallback(e.requestResize)
	e.window.SetKeyDownCallback(e.handleKey)
	e.window.SetScrollCallback(e.handleScroll)
	e.window.SetDragCallback(e.handleDrag)
	e.window.SetCloseCallback(e.Quit)
}

// requestResize records the latest surface size. It is applied before the next frame.
func (e *engine) requestResize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingResize = &[2]int{width, height}
}

func (e *engine) applyResize() {
	e.mu.Lock()
	size := e.pendingResize
	e.pendingResize = nil
	e.mu.Unlock()
	if size == nil {
		return
	}

	width, height := size[0], size[1]
	if e.surface != nil {
		e.surface.Resize(width, height)
	}
	if e.camera != nil && width > 0 && height > 0 {
		e.camera.Resize(float32(width) / float32(height))
	}
	logger.Debug("surface resized", zap.Int("width", width), zap.Int("height", height))
}

func (e *engine) controller() camera.CameraController {
	if e.camera == nil {
		return nil
	}
	return e.camera.Controller()
}

func (e *engine) handleKey(key uint32) {
	if key == common.KeyEsc {
		e.Quit()
		return
	}

	ctrl := e.controller()
	if ctrl == nil {
		return
	}
	switch key {
	case common.KeyLeft:
		ctrl.OrbitLeft()
	case common.KeyRight:
		ctrl.OrbitRight()
	case common.KeyUp:
		ctrl.OrbitUp()
	case common.KeyDown:
		ctrl.OrbitDown()
	case common.KeyEqual:
		ctrl.Zoom(1)
	case common.KeyMinus:
		ctrl.Zoom(-1)
	case common.KeyR:
		ctrl.Reset()
	}
}

func (e *engine) handleScroll(delta float32) {
	if ctrl := e.controller(); ctrl != nil {
		ctrl.Zoom(delta)
	}
}

func (e *engine) handleDrag(dx, dy float32) {
	if ctrl := e.controller(); ctrl != nil {
		ctrl.Drag(dx, dy)
	}
}
