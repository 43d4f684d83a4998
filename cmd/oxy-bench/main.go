// Command oxy-bench renders a mesh to a window and to an off-screen target every frame, reads the
// off-screen image back and writes it to disk.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Carmen-Shannon/oxy-bench/common"
	"github.com/Carmen-Shannon/oxy-bench/engine"
	"github.com/Carmen-Shannon/oxy-bench/engine/animation"
	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/clock"
	"github.com/Carmen-Shannon/oxy-bench/engine/export"
	"github.com/Carmen-Shannon/oxy-bench/engine/frame"
	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/Carmen-Shannon/oxy-bench/engine/orbit"
	"github.com/Carmen-Shannon/oxy-bench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bench/engine/scene"
	"github.com/Carmen-Shannon/oxy-bench/engine/window"
	"github.com/Carmen-Shannon/oxy-bench/internal/config"
	"github.com/Carmen-Shannon/oxy-bench/internal/logger"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// runConfigName is the config copy written next to the exported frames.
const runConfigName = "oxy-bench.run.yaml"

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "oxy-bench: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "oxy-bench: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("benchmark failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	mesh, err := loader.NewLoader().Load(cfg.Scene.Mesh, cfg.Scene.FlipHandedness)
	if err != nil {
		return fmt.Errorf("load mesh: %w", err)
	}

	var win window.Window
	if !cfg.Window.Headless {
		win, err = window.NewWindow(
			window.WithTitle(common.Coalesce(cfg.Window.Title, mesh.Name, "oxy-bench")),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
			window.WithMaximized(cfg.Window.Maximized),
		)
		if err != nil {
			return fmt.Errorf("open window: %w", err)
		}
		defer win.Close()
	}

	r, err := newRenderer(cfg, win)
	if err != nil {
		return err
	}
	defer r.Release()

	width, height := r.SurfaceSize()
	cam := newCamera(cfg, mesh.Diagonal(), width, height)
	s := scene.NewScene(mesh.Name, cam, scene.WithMeshes(mesh))
	anim := animation.NewAnimator(s, animation.WithOrbitLights(
		orbit.ThreeLights(cfg.Scene.LightRadius, cfg.Scene.LightHeight, cfg.Scene.LightIntensity)...,
	))

	opts := []frame.OrchestratorBuilderOption{
		frame.WithMapTimeout(cfg.Benchmark.MapTimeout),
	}
	if !cfg.Export.Disabled {
		snapshot := filepath.Join(filepath.Dir(cfg.Export.Path), runConfigName)
		if err := cfg.SaveTo(snapshot); err != nil {
			logger.Warn("could not save run config", zap.String("path", snapshot), zap.Error(err))
		}

		saver := export.NewSaver(
			export.WithJPEGQuality(cfg.Export.JPEGQuality),
			export.WithScale(cfg.Export.Scale),
		)
		opts = append(opts,
			frame.WithSaver(saver),
			frame.WithExportPath(cfg.Export.Path),
			frame.WithExportEvery(uint64(cfg.Export.Every)),
		)
	}
	orchestrator := frame.NewOrchestrator(r, s, anim, newClock(cfg), opts...)

	engineOpts := []engine.EngineBuilderOption{
		engine.WithSurface(r),
		engine.WithCamera(cam),
		engine.WithFrameLimit(uint64(cfg.Benchmark.Frames)),
		engine.WithSkipFailedFrames(cfg.Benchmark.SkipFailedFrames),
		engine.WithProfiling(cfg.Benchmark.Profile),
	}
	if win != nil {
		engineOpts = append(engineOpts, engine.WithWindow(win))
	}
	e := engine.NewEngine(orchestrator, engineOpts...)

	logger.Info("benchmark starting",
		zap.String("mesh", cfg.Scene.Mesh),
		zap.Int("triangles", len(mesh.Indices)/3),
		zap.Float32("diagonal", mesh.Diagonal()),
		zap.Stringer("backend", r.BackendType()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("frames", cfg.Benchmark.Frames),
	)
	return e.Run(ctx)
}

func newRenderer(cfg *config.Config, win window.Window) (renderer.Renderer, error) {
	backend, err := renderer.ParseBackendType(cfg.Renderer.Backend)
	if err != nil {
		return nil, err
	}
	mode, err := renderer.ParsePresentMode(cfg.Renderer.PresentMode)
	if err != nil {
		return nil, err
	}

	opts := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(mode),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceFallbackAdapter),
		renderer.WithSurfaceSize(cfg.Window.Width, cfg.Window.Height),
	}

	var surface renderer.SurfaceSource
	if win != nil {
		surface = win
	}
	r, err := renderer.NewRenderer(backend, surface, opts...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return r, nil
}

func newCamera(cfg *config.Config, diagonal float32, width, height int) camera.Camera {
	distance := math32.Max(cfg.Scene.DistanceScale*diagonal, orbit.MinDistance)
	ctrl := camera.NewCameraController(camera.WithRig(orbit.CameraRig{Distance: distance}))

	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	near := math32.Max(distance/1000, 0.001)
	cam := camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(cfg.Scene.FovDegrees)),
		camera.WithAspect(aspect),
		camera.WithClipPlanes(near, distance*4+diagonal),
		camera.WithController(ctrl),
	)
	cam.Update()
	return cam
}

func newClock(cfg *config.Config) clock.Clock {
	if cfg.Benchmark.Clock == "fixed" {
		return clock.NewFixedStep(cfg.Benchmark.FixedStep)
	}
	return clock.NewRealtime()
}
