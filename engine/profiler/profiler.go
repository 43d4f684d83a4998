// Package profiler aggregates per-frame timings of a benchmark run and logs them periodically.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-bench/engine/frame"
	"github.com/Carmen-Shannon/oxy-bench/internal/logger"
	"go.uber.org/zap"
)

// Stats is an aggregate over a window of frames.
type Stats struct {
	Frames        int
	Exported      int
	ExportErrors  int
	SkippedFrames int
	Wall          time.Duration
	Min           time.Duration
	Max           time.Duration
	Total         time.Duration
	Phases        [frame.PhaseCount]time.Duration
}

// FPS returns frames per wall-clock second.
func (s Stats) FPS() float64 {
	if s.Wall <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Wall.Seconds()
}

// Mean returns the average frame time.
func (s Stats) Mean() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

// PhaseMean returns the average time spent in phase p.
func (s Stats) PhaseMean(p frame.Phase) time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Phases[p] / time.Duration(s.Frames)
}

func (s *Stats) add(res *frame.Result) {
	total := res.Total()
	if s.Frames == 0 || total < s.Min {
		s.Min = total
	}
	if total > s.Max {
		s.Max = total
	}
	s.Frames++
	s.Total += total
	for p, d := range res.Phases {
		s.Phases[p] += d
	}
	if res.Exported {
		s.Exported++
	}
	if res.ExportErr != nil {
		s.ExportErrors++
	}
}

// Profiler tracks frame timings and memory statistics and logs them every update interval.
type Profiler struct {
	log            *zap.Logger
	now            func() time.Time
	updateInterval time.Duration

	start    time.Time
	lastTime time.Time
	window   Stats
	run      Stats

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a profiler that logs through the "profiler" logger.
//
// Parameters:
//   - interval: how often Record logs a summary, non-positive values mean one second
//
// Returns:
//   - *Profiler: the new profiler
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	p := &Profiler{
		log:            logger.Named("profiler"),
		now:            time.Now,
		updateInterval: interval,
	}
	p.start = p.now()
	p.lastTime = p.start
	return p
}

// Record adds one completed frame and logs a summary once the update interval has elapsed.
//
// Parameters:
//   - res: the frame result
//
// Returns:
//   - bool: true if a summary was logged by this call
func (p *Profiler) Record(res *frame.Result) bool {
	p.window.add(res)
	p.run.add(res)
	return p.maybeLog()
}

// Skip counts a frame that failed and was skipped.
func (p *Profiler) Skip() {
	p.window.SkippedFrames++
	p.run.SkippedFrames++
}

// Summary returns the aggregate over the whole run so far.
func (p *Profiler) Summary() Stats {
	s := p.run
	s.Wall = p.now().Sub(p.start)
	return s
}

// LogSummary writes the whole-run aggregate at info level.
func (p *Profiler) LogSummary() {
	s := p.Summary()
	p.log.Info("run summary", append(statFields(s),
		zap.Int("exported", s.Exported),
		zap.Duration("min", s.Min),
		zap.Duration("max", s.Max),
	)...)
}

func (p *Profiler) maybeLog() bool {
	now := p.now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	p.window.Wall = elapsed

	runtime.ReadMemStats(&p.memStats)
	allocRate := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	fields := append(statFields(p.window),
		zap.Float64("heap_mb", float64(p.memStats.Alloc)/1024/1024),
		zap.Float64("alloc_mb_s", allocRate),
		zap.Uint32("gc", p.memStats.NumGC-p.lastGCCount),
		zap.Float64("sys_mb", float64(p.memStats.Sys)/1024/1024),
	)
	p.log.Info("frame stats", fields...)

	p.window = Stats{}
	p.lastTime = now
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

func statFields(s Stats) []zap.Field {
	fields := []zap.Field{
		zap.Int("frames", s.Frames),
		zap.Float64("fps", s.FPS()),
		zap.Duration("mean", s.Mean()),
	}
	for p := frame.Phase(0); p < frame.PhaseCount; p++ {
		fields = append(fields, zap.Duration(p.String(), s.PhaseMean(p)))
	}
	if s.ExportErrors > 0 {
		fields = append(fields, zap.Int("export_errors", s.ExportErrors))
	}
	if s.SkippedFrames > 0 {
		fields = append(fields, zap.Int("skipped", s.SkippedFrames))
	}
	return fields
}
