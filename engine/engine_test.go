package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-bench/common"
	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/frame"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestrator struct {
	mu     sync.Mutex
	calls  int
	errs   map[int]error
	before func(call int)
}

func (o *fakeOrchestrator) RenderFrame(ctx context.Context) (*frame.Result, error) {
	o.mu.Lock()
	o.calls++
	call := o.calls
	err := o.errs[call]
	before := o.before
	o.mu.Unlock()

	if before != nil {
		before(call)
	}
	return &frame.Result{Index: uint64(call - 1)}, err
}

func (o *fakeOrchestrator) FramesRendered() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return uint64(o.calls)
}

type fakeResizer struct {
	sizes [][2]int
}

func (r *fakeResizer) Resize(width, height int) {
	r.sizes = append(r.sizes, [2]int{width, height})
}

// fakeWindow runs the frame callback until a close is requested.
type fakeWindow struct {
	mu      sync.Mutex
	closed  bool
	onFrame func()

	onResize  func(int, int)
	onScroll  func(float32)
	onKeyDown func(uint32)
	onDrag    func(float32, float32)
	onClose   func()
}

func (w *fakeWindow) SetFrameCallback(cb func()) { w.onFrame = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32)) { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32)) { w.onKeyDown = cb }
func (w *fakeWindow) SetDragCallback(cb func(dx, dy float32)) { w.onDrag = cb }
func (w *fakeWindow) SetCloseCallback(cb func()) { w.onClose = cb }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) Close() error { return nil }
func (w *fakeWindow) Width() int { return 512 }
func (w *fakeWindow) Height() int { return 512 }

func (w *fakeWindow) Run() {
	for w.IsRunning() {
		w.onFrame()
	}
}

func (w *fakeWindow) RequestClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func (w *fakeWindow) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed
}

func TestHeadlessRunStopsAtFrameLimit(t *testing.T) {
	orch := &fakeOrchestrator{}
	e := NewEngine(orch, WithFrameLimit(5))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(5), e.Frames())
	assert.Equal(t, 5, orch.calls)
}

func TestFatalFrameErrorEndsRun(t *testing.T) {
	boom := errors.New("device lost")
	orch := &fakeOrchestrator{errs: map[int]error{3: boom}}
	e := NewEngine(orch, WithFrameLimit(10))

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(2), e.Frames())
}

func TestSkipFailedFramesContinues(t *testing.T) {
	orch := &fakeOrchestrator{errs: map[int]error{2: frame.ErrMapTimeout, 4: frame.ErrMapFailed}}
	e := NewEngine(orch, WithFrameLimit(4), WithSkipFailedFrames(true), WithProfiling(true))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(4), e.Frames())
	assert.Equal(t, 6, orch.calls)
	assert.Equal(t, 2, e.Profiler().Summary().SkippedFrames)
}

func TestSkipFailedFramesGivesUp(t *testing.T) {
	orch := &fakeOrchestrator{errs: map[int]error{}}
	for i := 1; i <= maxConsecutiveFailures; i++ {
		orch.errs[i] = frame.ErrMapTimeout
	}
	e := NewEngine(orch, WithSkipFailedFrames(true))

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, ErrTooManyFailures)
	assert.ErrorIs(t, err, frame.ErrMapTimeout)
}

func TestZeroSurfaceIsNotAFrame(t *testing.T) {
	orch := &fakeOrchestrator{errs: map[int]error{1: frame.ErrZeroSurface, 2: frame.ErrZeroSurface}}
	e := NewEngine(orch, WithFrameLimit(1))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(1), e.Frames())
	assert.Equal(t, 3, orch.calls)
}

func TestQuitStopsBeforeNextFrame(t *testing.T) {
	orch := &fakeOrchestrator{}
	var e Engine
	orch.before = func(call int) {
		if call == 3 {
			e.Quit()
			e.Quit()
		}
	}
	e = NewEngine(orch)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, orch.calls)
}

func TestContextCancelEndsRunWithoutError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	orch := &fakeOrchestrator{before: func(call int) {
		if call == 2 {
			cancel()
		}
	}}
	e := NewEngine(orch)

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 2, orch.calls)
}

func TestRenderFrameLimitThrottles(t *testing.T) {
	e := NewEngine(&fakeOrchestrator{}, WithFrameLimit(3), WithRenderFrameLimit(100))

	start := time.Now()
	require.NoError(t, e.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWindowResizeAppliedBeforeNextFrame(t *testing.T) {
	win := &fakeWindow{}
	surface := &fakeResizer{}
	cam := camera.NewCamera()
	orch := &fakeOrchestrator{}

	var sizesAtFrame [][][2]int
	orch.before = func(call int) {
		sizesAtFrame = append(sizesAtFrame, append([][2]int(nil), surface.sizes...))
		if call == 1 {
			win.onResize(800, 400)
			win.onResize(1000, 500)
		}
	}
	e := NewEngine(orch, WithWindow(win), WithSurface(surface), WithCamera(cam), WithFrameLimit(2))

	require.NoError(t, e.Run(context.Background()))
	assert.Empty(t, sizesAtFrame[0])
	assert.Equal(t, [][2]int{{1000, 500}}, sizesAtFrame[1], "only the latest size is applied")
	assert.InDelta(t, 2.0, cam.Aspect(), 1e-6)
	assert.False(t, win.IsRunning())
}

func TestMinimizeKeepsCameraAspect(t *testing.T) {
	win := &fakeWindow{}
	surface := &fakeResizer{}
	cam := camera.NewCamera(camera.WithAspect(1.5))
	e := NewEngine(&fakeOrchestrator{}, WithWindow(win), WithSurface(surface), WithCamera(cam)).(*engine)

	win.onResize(0, 0)
	e.applyResize()

	assert.Equal(t, [][2]int{{0, 0}}, surface.sizes)
	assert.InDelta(t, 1.5, cam.Aspect(), 1e-6)
}

func TestInputDrivesCameraRig(t *testing.T) {
	win := &fakeWindow{}
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(2)))
	NewEngine(&fakeOrchestrator{}, WithWindow(win), WithCamera(cam))
	ctrl := cam.Controller()
	initial := ctrl.Rig()

	win.onKeyDown(common.KeyLeft)
	assert.NotEqual(t, initial.Yaw, ctrl.Rig().Yaw)

	win.onKeyDown(common.KeyEqual)
	assert.Less(t, ctrl.Rig().Distance, initial.Distance)

	win.onScroll(-2)
	win.onDrag(10, 0)
	win.onKeyDown(common.KeyR)
	assert.Equal(t, initial, ctrl.Rig())
}

func TestEscapeAndCloseQuit(t *testing.T) {
	for name, trigger := range map[string]func(w *fakeWindow){
		"escape": func(w *fakeWindow) { w.onKeyDown(common.KeyEsc) },
		"close":  func(w *fakeWindow) { w.onClose() },
	} {
		t.Run(name, func(t *testing.T) {
			win := &fakeWindow{}
			orch := &fakeOrchestrator{}
			orch.before = func(call int) {
				if call == 2 {
					trigger(win)
				}
			}
			e := NewEngine(orch, WithWindow(win))

			require.NoError(t, e.Run(context.Background()))
			assert.Equal(t, 2, orch.calls)
			assert.False(t, win.IsRunning())
		})
	}
}
