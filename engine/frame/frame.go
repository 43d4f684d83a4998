// Package frame produces one benchmark frame: it animates the scene, renders it to an off-screen
// target and to the surface, copies the off-screen image into a staging buffer, presents, waits for
// the staging buffer to map, and exports the pixels.
package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-bench/engine/clock"
	"github.com/Carmen-Shannon/oxy-bench/engine/export"
	"github.com/Carmen-Shannon/oxy-bench/engine/readback"
	"github.com/Carmen-Shannon/oxy-bench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/Carmen-Shannon/oxy-bench/internal/logger"
	"go.uber.org/zap"
)

var (
	// ErrSurfaceAcquire wraps a failure to acquire the surface image. It is fatal for the run.
	ErrSurfaceAcquire = errors.New("acquire surface image")

	// ErrMapFailed wraps a staging buffer map that completed with an error.
	ErrMapFailed = errors.New("map staging buffer")

	// ErrMapTimeout is returned when the staging buffer did not map within the map timeout.
	ErrMapTimeout = errors.New("staging buffer map timed out")

	// ErrZeroSurface is returned when the surface has no area, e.g. while the window is minimized.
	// No state advances and the frame should simply be skipped.
	ErrZeroSurface = errors.New("surface has zero area")
)

// DefaultMapTimeout bounds the wait for a staging buffer map.
const DefaultMapTimeout = 5 * time.Second

// mapPollInterval is how often a non-blocking poll is issued while waiting on a map callback.
const mapPollInterval = time.Millisecond

// Renderer is the part of renderer.Renderer the orchestrator drives.
type Renderer interface {
	SurfaceSize() (int, int)
	CopyAlignment() int
	AcquireSurface() (renderer.SurfaceTarget, error)
	CreateOffscreenTarget(width, height int) (renderer.Target, error)
	CreateStagingBuffer(size uint64) (renderer.StagingBuffer, error)
	CreateEncoder() (renderer.Encoder, error)
	Submit(enc renderer.Encoder) error
	Poll(wait bool)
}

// SceneSource hands out the state to render. scene.Scene satisfies it.
type SceneSource interface {
	Snapshot() *scene.Snapshot
}

// Animator advances the scene to a point in time. animation.Animator satisfies it.
type Animator interface {
	Animate(elapsed time.Duration)
}

// Saver writes exported pixels. export.Saver satisfies it.
type Saver interface {
	Save(path string, pixels []byte, width, height int, format export.PixelFormat) error
}

// Phase names one state of the per-frame pipeline, in execution order.
type Phase int

const (
	PhaseAnimate Phase = iota
	PhaseAcquire
	PhaseAllocate
	PhaseRecord
	PhaseCopy
	PhaseSubmit
	PhaseMap
	PhaseExport
	PhaseRelease

	// PhaseCount is the number of phases.
	PhaseCount
)

var phaseNames = [PhaseCount]string{
	"animate", "acquire", "allocate", "record", "copy", "submit", "map", "export", "release",
}

// String returns the lowercase phase name.
func (p Phase) String() string {
	if p < 0 || p >= PhaseCount {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Result describes one produced frame.
type Result struct {
	Index      uint64
	Elapsed    time.Duration
	Layout     readback.RowLayout
	Exported   bool
	ExportPath string
	ExportErr  error
	Phases     [PhaseCount]time.Duration
}

// Total returns the sum of all phase durations.
func (r *Result) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Phases {
		total += d
	}
	return total
}

func (r *Result) mark(p Phase, start time.Time) time.Time {
	now := time.Now()
	r.Phases[p] = now.Sub(start)
	return now
}

// orchestrator is the implementation of the Orchestrator interface.
type orchestrator struct {
	mu *sync.Mutex

	renderer Renderer
	scene    SceneSource
	animator Animator
	clock    clock.Clock

	saver       Saver
	exportPath  string
	exportEvery uint64
	mapTimeout  time.Duration
	pixelSink   func(res *Result, pixels []byte)

	next uint64
}

// Orchestrator defines the interface of the per-frame pipeline.
//
// Each RenderFrame call runs, strictly in order: animate, acquire, allocate, record, copy, submit
// and present, map, export, release. Frames never overlap. The only blocking point is the wait
// for the staging buffer map, which is bounded by the map timeout.
type Orchestrator interface {
	// RenderFrame produces one frame.
	//
	// Parameters:
	//   - ctx: cancels the map wait; checked before the frame starts
	//
	// Returns:
	//   - *Result: the frame description, non-nil whenever the frame got past animation
	//   - error: ErrZeroSurface, ErrSurfaceAcquire, ErrMapFailed, ErrMapTimeout, a context error,
	//     or a wrapped renderer error. Export failures are reported in Result.ExportErr instead.
	RenderFrame(ctx context.Context) (*Result, error)

	// FramesRendered returns how many frames have been started, which is also the next index.
	FramesRendered() uint64
}

var _ Orchestrator = &orchestrator{}

// NewOrchestrator creates a frame orchestrator.
//
// Parameters:
//   - r: the renderer, usually a renderer.Renderer
//   - s: the scene to draw
//   - a: the animator that advances s
//   - c: the clock read once per frame
//   - options: a variadic list of OrchestratorBuilderOption functions
//
// Returns:
//   - Orchestrator: the new orchestrator
func NewOrchestrator(r Renderer, s SceneSource, a Animator, c clock.Clock, options ...OrchestratorBuilderOption) Orchestrator {
	o := &orchestrator{
		mu:          &sync.Mutex{},
		renderer:    r,
		scene:       s,
		animator:    a,
		clock:       c,
		exportEvery: 1,
		mapTimeout:  DefaultMapTimeout,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *orchestrator) FramesRendered() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.next
}

// frameResources tracks what a frame has allocated so every exit path frees it exactly once.
type frameResources struct {
	surface   renderer.SurfaceTarget
	offscreen renderer.Target
	staging   renderer.StagingBuffer
	encoder   renderer.Encoder
	presented bool
	submitted bool
}

func (f *frameResources) release() {
	if f.staging != nil {
		f.staging.Unmap()
		f.staging.Release()
		f.staging = nil
	}
	if f.offscreen != nil {
		f.offscreen.Release()
		f.offscreen = nil
	}
	if f.encoder != nil && !f.submitted {
		f.encoder.Release()
	}
	f.encoder = nil
	if f.surface != nil && !f.presented {
		// failed before Present: hand the image back without showing it
		f.surface.Release()
	}
	f.surface = nil
}

func (o *orchestrator) RenderFrame(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	width, height := o.renderer.SurfaceSize()
	if width <= 0 || height <= 0 {
		return nil, ErrZeroSurface
	}

	res := &Result{Index: o.next}
	o.next++

	fr := &frameResources{}
	defer fr.release()

	// 1. animate: the clock is read once and nothing mutates the scene until the next frame
	start := time.Now()
	res.Elapsed = o.clock.Elapsed()
	o.animator.Animate(res.Elapsed)
	snap := o.scene.Snapshot()
	start = res.mark(PhaseAnimate, start)

	// 2. acquire
	surface, err := o.renderer.AcquireSurface()
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSurfaceAcquire, err)
	}
	fr.surface = surface
	start = res.mark(PhaseAcquire, start)

	// 3. allocate, sized from the current surface every frame
	res.Layout = readback.ComputeRowLayout(width, height, readback.BytesPerPixelBGRA8, o.renderer.CopyAlignment())
	if fr.offscreen, err = o.renderer.CreateOffscreenTarget(width, height); err != nil {
		return res, fmt.Errorf("create off-screen target: %w", err)
	}
	if fr.staging, err = o.renderer.CreateStagingBuffer(res.Layout.BufferSize()); err != nil {
		return res, fmt.Errorf("create staging buffer: %w", err)
	}
	start = res.mark(PhaseAllocate, start)

	// 4. record both passes from the same snapshot
	if fr.encoder, err = o.renderer.CreateEncoder(); err != nil {
		return res, fmt.Errorf("create encoder: %w", err)
	}
	for _, target := range []renderer.Target{fr.offscreen, surface} {
		if err := fr.encoder.RenderScene(target, snap); err != nil {
			return res, fmt.Errorf("record render pass: %w", err)
		}
	}
	start = res.mark(PhaseRecord, start)

	// 5. copy
	if err := fr.encoder.CopyTargetToBuffer(fr.offscreen, fr.staging, res.Layout); err != nil {
		return res, fmt.Errorf("record readback copy: %w", err)
	}
	start = res.mark(PhaseCopy, start)

	// 6. submit and present
	fr.submitted = true
	if err := o.renderer.Submit(fr.encoder); err != nil {
		return res, fmt.Errorf("submit: %w", err)
	}
	surface.Present()
	fr.presented = true
	start = res.mark(PhaseSubmit, start)

	// 7. map and read
	padded, err := o.mapStaging(ctx, fr.staging)
	if err != nil {
		return res, err
	}
	start = res.mark(PhaseMap, start)

	// 8. export
	if o.shouldExport(res.Index) {
		o.exportFrame(res, padded)
	}
	start = res.mark(PhaseExport, start)

	// 9. release
	fr.release()
	res.mark(PhaseRelease, start)

	logger.Debug("frame complete",
		zap.Uint64("frame", res.Index),
		zap.Duration("elapsed", res.Elapsed),
		zap.Duration("total", res.Total()),
		zap.Bool("exported", res.Exported),
	)
	return res, nil
}

// mapStaging requests the map, polls the device and waits for the callback. The returned bytes
// alias the mapped range and stay valid until the buffer is unmapped.
func (o *orchestrator) mapStaging(ctx context.Context, staging renderer.StagingBuffer) ([]byte, error) {
	done := make(chan error, 1)
	if err := staging.MapRead(func(err error) { done <- err }); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}

	// the callback can only fire from inside a poll, so poll before waiting
	o.renderer.Poll(true)

	timeout := time.NewTimer(o.mapTimeout)
	defer timeout.Stop()
	tick := time.NewTicker(mapPollInterval)
	defer tick.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
			}
			data, err := staging.MappedRange()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
			}
			return data, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, fmt.Errorf("%w after %s", ErrMapTimeout, o.mapTimeout)
		case <-tick.C:
			o.renderer.Poll(false)
		}
	}
}

func (o *orchestrator) shouldExport(index uint64) bool {
	if o.saver == nil && o.pixelSink == nil {
		return false
	}
	return index%o.exportEvery == 0
}

func (o *orchestrator) exportFrame(res *Result, padded []byte) {
	pixels, err := readback.StripPadding(padded, res.Layout)
	if err != nil {
		res.ExportErr = err
		logger.Warn("frame export failed", zap.Uint64("frame", res.Index), zap.Error(err))
		return
	}
	if o.pixelSink != nil {
		o.pixelSink(res, pixels)
	}
	if o.saver == nil {
		return
	}

	path := export.FramePath(o.exportPath, res.Index)
	res.ExportPath = path
	if err := o.saver.Save(path, pixels, res.Layout.Width, res.Layout.Height, export.PixelFormatBGRA8); err != nil {
		res.ExportErr = err
		logger.Warn("frame export failed",
			zap.Uint64("frame", res.Index),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	res.Exported = true
}
