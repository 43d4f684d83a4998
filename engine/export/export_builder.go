package export

// SaverBuilderOption is a functional option for configuring a Saver via NewSaver.
type SaverBuilderOption func(*saver)

// WithJPEGQuality sets the JPEG encoder quality.
//
// Parameters:
//   - quality: 1 to 100, out of range values are clamped
//
// Returns:
//   - SaverBuilderOption: a function that applies the quality option to a saver
func WithJPEGQuality(quality int) SaverBuilderOption {
	return func(s *saver) {
		s.jpegQuality = min(max(quality, 1), 100)
	}
}

// WithScale resizes images by factor before encoding. 1 keeps the original size.
//
// Parameters:
//   - factor: the scale factor, must be positive
//
// Returns:
//   - SaverBuilderOption: a function that applies the scale option to a saver
func WithScale(factor float64) SaverBuilderOption {
	return func(s *saver) {
		if factor > 0 {
			s.scale = factor
		}
	}
}

// WithFormat fixes the encoding regardless of the path's extension.
//
// Parameters:
//   - format: the image format
//
// Returns:
//   - SaverBuilderOption: a function that applies the format option to a saver
func WithFormat(format ImageFormat) SaverBuilderOption {
	return func(s *saver) {
		s.format = format
	}
}
