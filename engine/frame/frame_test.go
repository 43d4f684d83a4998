package frame

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-bench/engine/animation"
	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/clock"
	"github.com/Carmen-Shannon/oxy-bench/engine/export"
	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/Carmen-Shannon/oxy-bench/engine/orbit"
	"github.com/Carmen-Shannon/oxy-bench/engine/readback"
	"github.com/Carmen-Shannon/oxy-bench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) add(call string) {
	r.calls = append(r.calls, call)
}

type fakeTarget struct {
	rec    *recorder
	name   string
	width  int
	height int
}

func (t *fakeTarget) Width() int  { return t.width }
func (t *fakeTarget) Height() int { return t.height }
func (t *fakeTarget) Release()    { t.rec.add("release:" + t.name) }
func (t *fakeTarget) Present()    { t.rec.add("present") }

type fakeStaging struct {
	rec     *recorder
	size    uint64
	data    []byte
	pending func(error)
	reads   int
}

func (b *fakeStaging) Size() uint64 { return b.size }

func (b *fakeStaging) MapRead(cb func(error)) error {
	b.rec.add("map")
	b.pending = cb
	return nil
}

func (b *fakeStaging) MappedRange() ([]byte, error) {
	b.reads++
	return b.data, nil
}

func (b *fakeStaging) Unmap()   { b.rec.add("unmap") }
func (b *fakeStaging) Release() { b.rec.add("release:staging") }

type fakeEncoder struct {
	rec       *recorder
	snaps     []*scene.Snapshot
	recordErr error
}

func (e *fakeEncoder) RenderScene(target renderer.Target, snap *scene.Snapshot) error {
	e.rec.add("render:" + target.(*fakeTarget).name)
	e.snaps = append(e.snaps, snap)
	return e.recordErr
}

// CopyTargetToBuffer fills each row with its row index and the padding with 0xEE.
func (e *fakeEncoder) CopyTargetToBuffer(src renderer.Target, dst renderer.StagingBuffer, layout readback.RowLayout) error {
	e.rec.add("copy")
	b := dst.(*fakeStaging)
	b.data = make([]byte, layout.BufferSize())
	for y := 0; y < layout.Height; y++ {
		row := b.data[y*layout.PaddedBytesPerRow : (y+1)*layout.PaddedBytesPerRow]
		for x := range row {
			if x < layout.UnpaddedBytesPerRow {
				row[x] = byte(y)
			} else {
				row[x] = 0xEE
			}
		}
	}
	return nil
}

func (e *fakeEncoder) Release() { e.rec.add("release:encoder") }

type fakeRenderer struct {
	rec        *recorder
	width      int
	height     int
	acquireErr error
	recordErr  error
	mapErr     error
	neverMap   bool

	staging *fakeStaging
	encoder *fakeEncoder
	polls   int
}

func (r *fakeRenderer) SurfaceSize() (int, int) { return r.width, r.height }
func (r *fakeRenderer) CopyAlignment() int      { return 256 }

func (r *fakeRenderer) AcquireSurface() (renderer.SurfaceTarget, error) {
	r.rec.add("acquire")
	if r.acquireErr != nil {
		return nil, r.acquireErr
	}
	return &fakeTarget{rec: r.rec, name: "surface", width: r.width, height: r.height}, nil
}

func (r *fakeRenderer) CreateOffscreenTarget(width, height int) (renderer.Target, error) {
	r.rec.add("create:offscreen")
	return &fakeTarget{rec: r.rec, name: "offscreen", width: width, height: height}, nil
}

func (r *fakeRenderer) CreateStagingBuffer(size uint64) (renderer.StagingBuffer, error) {
	r.rec.add("create:staging")
	r.staging = &fakeStaging{rec: r.rec, size: size}
	return r.staging, nil
}

func (r *fakeRenderer) CreateEncoder() (renderer.Encoder, error) {
	r.rec.add("create:encoder")
	r.encoder = &fakeEncoder{rec: r.rec, recordErr: r.recordErr}
	return r.encoder, nil
}

func (r *fakeRenderer) Submit(enc renderer.Encoder) error {
	r.rec.add("submit")
	return nil
}

func (r *fakeRenderer) Poll(wait bool) {
	r.polls++
	if wait {
		r.rec.add("poll")
	}
	if r.neverMap || r.staging == nil || r.staging.pending == nil {
		return
	}
	cb := r.staging.pending
	r.staging.pending = nil
	cb(r.mapErr)
}

type fakeScene struct {
	rec *recorder
}

func (s *fakeScene) Snapshot() *scene.Snapshot {
	s.rec.add("snapshot")
	return &scene.Snapshot{}
}

type fakeAnimator struct {
	rec   *recorder
	times []time.Duration
}

func (a *fakeAnimator) Animate(elapsed time.Duration) {
	a.rec.add("animate")
	a.times = append(a.times, elapsed)
}

type savedFrame struct {
	path   string
	pixels []byte
	width  int
	height int
	format export.PixelFormat
}

type fakeSaver struct {
	rec   *recorder
	err   error
	saves []savedFrame
}

func (s *fakeSaver) Save(path string, pixels []byte, width, height int, format export.PixelFormat) error {
	s.rec.add("save")
	s.saves = append(s.saves, savedFrame{path, append([]byte(nil), pixels...), width, height, format})
	return s.err
}

type harness struct {
	rec      *recorder
	renderer *fakeRenderer
	animator *fakeAnimator
	saver    *fakeSaver
	clock    *clock.Manual
}

func newHarness(width, height int) *harness {
	rec := &recorder{}
	return &harness{
		rec:      rec,
		renderer: &fakeRenderer{rec: rec, width: width, height: height},
		animator: &fakeAnimator{rec: rec},
		saver:    &fakeSaver{rec: rec},
		clock:    clock.NewManual(0),
	}
}

func (h *harness) orchestrator(opts ...OrchestratorBuilderOption) Orchestrator {
	opts = append([]OrchestratorBuilderOption{WithSaver(h.saver)}, opts...)
	return NewOrchestrator(h.renderer, &fakeScene{rec: h.rec}, h.animator, h.clock, opts...)
}

func TestRenderFramePhaseOrder(t *testing.T) {
	h := newHarness(100, 10)
	o := h.orchestrator(WithExportPath("out/frame_{frame}.png"))

	h.clock.Set(250 * time.Millisecond)
	res, err := o.RenderFrame(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"animate", "snapshot", "acquire",
		"create:offscreen", "create:staging", "create:encoder",
		"render:offscreen", "render:surface", "copy",
		"submit", "present", "map", "poll",
		"save", "unmap", "release:staging", "release:offscreen",
	}, h.rec.calls)

	assert.Equal(t, uint64(0), res.Index)
	assert.Equal(t, 250*time.Millisecond, res.Elapsed)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, h.animator.times)
	assert.True(t, res.Exported)
	assert.NoError(t, res.ExportErr)
	assert.Equal(t, "out/frame_000000.png", res.ExportPath)
	assert.Equal(t, uint64(1), o.FramesRendered())
}

func TestRenderFrameUsesOneSnapshotForBothPasses(t *testing.T) {
	h := newHarness(16, 16)
	o := h.orchestrator()

	_, err := o.RenderFrame(context.Background())
	require.NoError(t, err)

	snaps := h.renderer.encoder.snaps
	require.Len(t, snaps, 2)
	assert.Same(t, snaps[0], snaps[1])
}

func TestRenderFrameStripsRowPadding(t *testing.T) {
	h := newHarness(100, 10)
	o := h.orchestrator()

	res, err := o.RenderFrame(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 400, res.Layout.UnpaddedBytesPerRow)
	assert.Equal(t, 512, res.Layout.PaddedBytesPerRow)
	assert.Equal(t, uint64(512*10), h.renderer.staging.size)

	require.Len(t, h.saver.saves, 1)
	saved := h.saver.saves[0]
	assert.Equal(t, 100, saved.width)
	assert.Equal(t, 10, saved.height)
	assert.Equal(t, export.PixelFormatBGRA8, saved.format)
	require.Len(t, saved.pixels, 100*10*4)
	for y := 0; y < 10; y++ {
		row := saved.pixels[y*400 : (y+1)*400]
		assert.NotContains(t, row, byte(0xEE), "row %d kept padding", y)
		assert.Equal(t, byte(y), row[0])
		assert.Equal(t, byte(y), row[399])
	}
}

func TestRenderFrameAdvancesIndexAndPath(t *testing.T) {
	h := newHarness(8, 8)
	o := h.orchestrator(WithExportPath("shot_{frame}.bmp"))

	for i := 0; i < 3; i++ {
		res, err := o.RenderFrame(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(i), res.Index)
	}

	require.Len(t, h.saver.saves, 3)
	assert.Equal(t, "shot_000002.bmp", h.saver.saves[2].path)
}

func TestRenderFrameExportEvery(t *testing.T) {
	h := newHarness(8, 8)
	o := h.orchestrator(WithExportPath("f_{frame}.png"), WithExportEvery(2))

	exported := []bool{}
	for i := 0; i < 5; i++ {
		res, err := o.RenderFrame(context.Background())
		require.NoError(t, err)
		exported = append(exported, res.Exported)
	}

	assert.Equal(t, []bool{true, false, true, false, true}, exported)
	require.Len(t, h.saver.saves, 3)
	assert.Equal(t, "f_000004.png", h.saver.saves[2].path)
}

func TestRenderFrameAcquireFailure(t *testing.T) {
	h := newHarness(8, 8)
	h.renderer.acquireErr = errors.New("surface lost")
	o := h.orchestrator()

	_, err := o.RenderFrame(context.Background())
	require.ErrorIs(t, err, ErrSurfaceAcquire)
	assert.ErrorContains(t, err, "surface lost")
	assert.Equal(t, []string{"animate", "snapshot", "acquire"}, h.rec.calls)
}

func TestRenderFrameMapFailureNeverReadsBuffer(t *testing.T) {
	h := newHarness(8, 8)
	h.renderer.mapErr = errors.New("device lost")
	o := h.orchestrator()

	_, err := o.RenderFrame(context.Background())
	require.ErrorIs(t, err, ErrMapFailed)

	assert.Zero(t, h.renderer.staging.reads)
	assert.Empty(t, h.saver.saves)
	assert.Contains(t, h.rec.calls, "release:staging")
	assert.Contains(t, h.rec.calls, "release:offscreen")
}

func TestRenderFrameMapTimeout(t *testing.T) {
	h := newHarness(8, 8)
	h.renderer.neverMap = true
	o := h.orchestrator(WithMapTimeout(20 * time.Millisecond))

	start := time.Now()
	_, err := o.RenderFrame(context.Background())
	require.ErrorIs(t, err, ErrMapTimeout)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Greater(t, h.renderer.polls, 1, "the map wait should keep polling")
	assert.Zero(t, h.renderer.staging.reads)
	assert.Contains(t, h.rec.calls, "release:staging")
}

func TestRenderFrameMapWaitHonorsContext(t *testing.T) {
	h := newHarness(8, 8)
	h.renderer.neverMap = true
	o := h.orchestrator()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := o.RenderFrame(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRenderFrameExportErrorIsNotFatal(t *testing.T) {
	h := newHarness(8, 8)
	h.saver.err = errors.New("disk full")
	o := h.orchestrator(WithExportPath("f.png"))

	res, err := o.RenderFrame(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Exported)
	assert.ErrorContains(t, res.ExportErr, "disk full")

	_, err = o.RenderFrame(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), o.FramesRendered())
}

func TestRenderFrameRecordFailureReleasesSurfaceWithoutPresent(t *testing.T) {
	h := newHarness(8, 8)
	h.renderer.recordErr = errors.New("bad pipeline")
	o := h.orchestrator()

	_, err := o.RenderFrame(context.Background())
	require.Error(t, err)

	assert.NotContains(t, h.rec.calls, "present")
	assert.NotContains(t, h.rec.calls, "submit")
	assert.Contains(t, h.rec.calls, "release:surface")
	assert.Contains(t, h.rec.calls, "release:encoder")
	assert.Contains(t, h.rec.calls, "release:staging")
}

func TestRenderFrameZeroSurfaceSkips(t *testing.T) {
	h := newHarness(0, 600)
	o := h.orchestrator()

	res, err := o.RenderFrame(context.Background())
	assert.ErrorIs(t, err, ErrZeroSurface)
	assert.Nil(t, res)
	assert.Empty(t, h.rec.calls)
	assert.Zero(t, o.FramesRendered())
}

func TestRenderFrameCancelledContext(t *testing.T) {
	h := newHarness(8, 8)
	o := h.orchestrator()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.RenderFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.rec.calls)
}

func TestWithoutSaverSkipsExport(t *testing.T) {
	h := newHarness(8, 8)
	o := NewOrchestrator(h.renderer, &fakeScene{rec: h.rec}, h.animator, h.clock)

	res, err := o.RenderFrame(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Exported)
	assert.NotContains(t, h.rec.calls, "save")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "animate", PhaseAnimate.String())
	assert.Equal(t, "map", PhaseMap.String())
	assert.Equal(t, "release", PhaseRelease.String())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}

func TestSoftwareRendererEndToEnd(t *testing.T) {
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithSurfaceSize(64, 48))
	require.NoError(t, err)
	t.Cleanup(r.Release)

	mesh := &loader.Mesh{
		Name:      "tri",
		Positions: []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
	cam := camera.NewCamera(
		camera.WithAspect(64.0/48.0),
		camera.WithPose(mgl32.Vec3{0, 0, 4}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
	)
	s := scene.NewScene("e2e", cam, scene.WithMeshes(mesh))
	anim := animation.NewAnimator(s, animation.WithOrbitLights(orbit.ThreeLights(3, 1, 20)...))

	dir := t.TempDir()
	var sunk int
	o := NewOrchestrator(r, s, anim, clock.NewFixedStep(16*time.Millisecond),
		WithSaver(export.NewSaver()),
		WithExportPath(filepath.Join(dir, "frame_{frame}.png")),
		WithPixelSink(func(res *Result, pixels []byte) { sunk = len(pixels) }),
	)

	for i := 0; i < 2; i++ {
		res, err := o.RenderFrame(context.Background())
		require.NoError(t, err)
		require.NoError(t, res.ExportErr)
		assert.True(t, res.Exported)
	}
	assert.Equal(t, 64*48*4, sunk)

	f, err := os.Open(filepath.Join(dir, "frame_000001.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestSoftwareRendererResizeRecomputesLayout(t *testing.T) {
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithSurfaceSize(512, 4))
	require.NoError(t, err)
	t.Cleanup(r.Release)

	cam := camera.NewCamera(camera.WithPose(mgl32.Vec3{0, 0, 4}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	s := scene.NewScene("resize", cam)
	anim := animation.NewAnimator(s)

	var sunk int
	o := NewOrchestrator(r, s, anim, clock.NewFixedStep(16*time.Millisecond),
		WithPixelSink(func(res *Result, pixels []byte) { sunk = len(pixels) }),
	)

	res, err := o.RenderFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2048, res.Layout.UnpaddedBytesPerRow)
	assert.Equal(t, 2048, res.Layout.PaddedBytesPerRow)
	assert.Equal(t, 512*4*4, sunk)

	r.Resize(300, 10)
	res, err = o.RenderFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300, res.Layout.Width)
	assert.Equal(t, 10, res.Layout.Height)
	assert.Equal(t, 1200, res.Layout.UnpaddedBytesPerRow)
	assert.Equal(t, 1280, res.Layout.PaddedBytesPerRow)
	assert.Equal(t, 12000, sunk)
}
