package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging and the profiler")
	flagMesh     = flag.String("mesh", "", "Mesh file to benchmark (.glb, .gltf, .stl, .obj, .ply)")
	flagOutput   = flag.String("output", "", "Export path for read-back frames; {frame} expands to the frame index")
	flagFrames   = flag.Int("frames", -1, "Number of frames to render (0 = until the window closes)")
	flagBackend  = flag.String("backend", "", "Render backend: wgpu or software")
	flagWidth    = flag.Int("width", 0, "Surface width")
	flagHeight   = flag.Int("height", 0, "Surface height")
	flagHeadless = flag.Bool("headless", false, "Render without a window (forces the software backend)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Benchmark.Profile = true
	}
	if *flagMesh != "" {
		cfg.Scene.Mesh = *flagMesh
	}
	if *flagOutput != "" {
		cfg.Export.Path = *flagOutput
	}
	if *flagFrames >= 0 {
		cfg.Benchmark.Frames = *flagFrames
	}
	if *flagBackend != "" {
		cfg.Renderer.Backend = *flagBackend
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagHeadless {
		cfg.Window.Headless = true
		cfg.Renderer.Backend = "software"
	}
}
