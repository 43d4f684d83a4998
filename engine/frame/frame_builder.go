package frame

import "time"

// OrchestratorBuilderOption is a functional option for configuring an Orchestrator during construction.
type OrchestratorBuilderOption func(*orchestrator)

// WithSaver is an option builder that enables image export through the given saver.
//
// Parameters:
//   - s: the saver, usually an export.Saver
//
// Returns:
//   - OrchestratorBuilderOption: a function that applies the saver option to an orchestrator
func WithSaver(s Saver) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.saver = s
	}
}

// WithExportPath is an option builder that sets the export path pattern.
// A "{frame}" placeholder is replaced with the zero-padded frame index.
//
// Parameters:
//   - pattern: the output path or path pattern
//
// Returns:
//   - OrchestratorBuilderOption: a function that applies the export path option to an orchestrator
func WithExportPath(pattern string) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.exportPath = pattern
	}
}

// WithExportEvery is an option builder that exports only every n-th frame. Zero is treated as 1.
//
// Parameters:
//   - n: the export interval in frames
//
// Returns:
//   - OrchestratorBuilderOption: a function that applies the export interval option to an orchestrator
func WithExportEvery(n uint64) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.exportEvery = max(n, 1)
	}
}

// WithMapTimeout is an option builder that bounds the wait for the staging buffer map.
//
// Parameters:
//   - d: the timeout, non-positive values keep DefaultMapTimeout
//
// Returns:
//   - OrchestratorBuilderOption: a function that applies the map timeout option to an orchestrator
func WithMapTimeout(d time.Duration) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		if d > 0 {
			o.mapTimeout = d
		}
	}
}

// WithPixelSink is an option builder that receives the unpadded BGRA8 pixels of every exported frame.
// The slice is only valid for the duration of the call.
//
// Parameters:
//   - sink: the callback
//
// Returns:
//   - OrchestratorBuilderOption: a function that applies the pixel sink option to an orchestrator
func WithPixelSink(sink func(res *Result, pixels []byte)) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.pixelSink = sink
	}
}
