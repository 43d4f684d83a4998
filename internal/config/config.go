// Package config handles benchmark configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all benchmark settings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Scene     SceneConfig     `yaml:"scene"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds the presentation window settings.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Maximized bool   `yaml:"maximized"`
	Headless  bool   `yaml:"headless"`
}

// RendererConfig selects the render backend and its surface behaviour.
type RendererConfig struct {
	Backend              string `yaml:"backend"`      // wgpu | software
	PresentMode          string `yaml:"present_mode"` // vsync | uncapped
	ForceFallbackAdapter bool   `yaml:"force_fallback_adapter"`
}

// SceneConfig holds the benchmark scene: the mesh under test and its lighting rig.
type SceneConfig struct {
	Mesh           string  `yaml:"mesh"`
	FlipHandedness bool    `yaml:"flip_handedness"`
	DistanceScale  float32 `yaml:"distance_scale"`
	FovDegrees     float32 `yaml:"fov_degrees"`
	LightRadius    float32 `yaml:"light_radius"`
	LightHeight    float32 `yaml:"light_height"`
	LightIntensity float32 `yaml:"light_intensity"`
}

// BenchmarkConfig controls the frame loop.
type BenchmarkConfig struct {
	Frames           int           `yaml:"frames"` // 0 runs until the window closes
	Clock            string        `yaml:"clock"`  // realtime | fixed
	FixedStep        time.Duration `yaml:"fixed_step"`
	MapTimeout       time.Duration `yaml:"map_timeout"`
	SkipFailedFrames bool          `yaml:"skip_failed_frames"`
	Profile          bool          `yaml:"profile"`
}

// ExportConfig controls how read-back frames are written to disk.
type ExportConfig struct {
	Path        string  `yaml:"path"` // may contain {frame}
	Every       int     `yaml:"every"`
	JPEGQuality int     `yaml:"jpeg_quality"`
	Scale       float64 `yaml:"scale"`
	Disabled    bool    `yaml:"disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-bench",
			Width:  512,
			Height: 512,
		},
		Renderer: RendererConfig{
			Backend:     "wgpu",
			PresentMode: "vsync",
		},
		Scene: SceneConfig{
			FlipHandedness: true,
			DistanceScale:  1.3,
			FovDegrees:     45,
			LightRadius:    10,
			LightHeight:    10,
			LightIntensity: 800,
		},
		Benchmark: BenchmarkConfig{
			Frames:     0,
			Clock:      "realtime",
			FixedStep:  time.Second / 60,
			MapTimeout: 5 * time.Second,
		},
		Export: ExportConfig{
			Path:        "frame.jpg",
			Every:       1,
			JPEGQuality: 90,
			Scale:       1.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every invalid setting in the config.
func (c *Config) Validate() error {
	var errs []error

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	switch c.Renderer.Backend {
	case "wgpu", "software":
	default:
		errs = append(errs, fmt.Errorf("unknown renderer backend %q", c.Renderer.Backend))
	}
	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		errs = append(errs, fmt.Errorf("unknown present mode %q", c.Renderer.PresentMode))
	}
	if c.Renderer.Backend == "wgpu" && c.Window.Headless {
		errs = append(errs, errors.New("the wgpu backend needs a window; use the software backend when headless"))
	}
	if c.Scene.Mesh == "" {
		errs = append(errs, errors.New("scene mesh path is required"))
	}
	if c.Scene.DistanceScale <= 0 {
		errs = append(errs, fmt.Errorf("distance scale must be positive, got %v", c.Scene.DistanceScale))
	}
	if c.Scene.FovDegrees <= 0 || c.Scene.FovDegrees >= 180 {
		errs = append(errs, fmt.Errorf("fov must be in (0, 180), got %v", c.Scene.FovDegrees))
	}
	if c.Benchmark.Frames < 0 {
		errs = append(errs, fmt.Errorf("frame count cannot be negative, got %d", c.Benchmark.Frames))
	}
	if c.Window.Headless && c.Benchmark.Frames == 0 {
		errs = append(errs, errors.New("headless runs need a frame count"))
	}
	switch c.Benchmark.Clock {
	case "realtime":
	case "fixed":
		if c.Benchmark.FixedStep <= 0 {
			errs = append(errs, fmt.Errorf("fixed clock step must be positive, got %v", c.Benchmark.FixedStep))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown clock %q", c.Benchmark.Clock))
	}
	if c.Benchmark.MapTimeout <= 0 {
		errs = append(errs, fmt.Errorf("map timeout must be positive, got %v", c.Benchmark.MapTimeout))
	}
	if c.Export.Every < 1 {
		errs = append(errs, fmt.Errorf("export every must be at least 1, got %d", c.Export.Every))
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality must be in [1, 100], got %d", c.Export.JPEGQuality))
	}
	if c.Export.Scale <= 0 || c.Export.Scale > 1 {
		errs = append(errs, fmt.Errorf("export scale must be in (0, 1], got %v", c.Export.Scale))
	}

	return errors.Join(errs...)
}
