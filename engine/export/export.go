// Package export encodes read-back frames into image files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned when no encoder exists for the output path's extension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FramePlaceholder is replaced by the zero-padded frame index in export paths.
const FramePlaceholder = "{frame}"

// PixelFormat describes the byte order of the pixels handed to Save.
type PixelFormat int

const (
	// PixelFormatBGRA8 is 4 bytes per pixel in B, G, R, A order. Read-back frames use it.
	PixelFormatBGRA8 PixelFormat = iota

	// PixelFormatRGBA8 is 4 bytes per pixel in R, G, B, A order.
	PixelFormatRGBA8
)

// ImageFormat identifies the file encoding.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatBMP  ImageFormat = "bmp"
	ImageFormatTIFF ImageFormat = "tiff"
)

// FormatFromPath picks the image format from a file extension.
//
// Parameters:
//   - path: the output path
//
// Returns:
//   - ImageFormat: the format
//   - error: ErrUnsupportedFormat if the extension is unknown
func FormatFromPath(path string) (ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return ImageFormatPNG, nil
	case ".jpg", ".jpeg":
		return ImageFormatJPEG, nil
	case ".bmp":
		return ImageFormatBMP, nil
	case ".tif", ".tiff":
		return ImageFormatTIFF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FramePath substitutes FramePlaceholder in pattern with the frame index as six digits.
// Patterns without the placeholder are returned unchanged, so every frame overwrites one file.
//
// Parameters:
//   - pattern: the configured output path
//   - index: the frame index
//
// Returns:
//   - string: the concrete path for this frame
func FramePath(pattern string, index uint64) string {
	return strings.ReplaceAll(pattern, FramePlaceholder, fmt.Sprintf("%06d", index))
}

// saver is the implementation of the Saver interface.
type saver struct {
	mu *sync.Mutex

	jpegQuality int
	scale       float64
	format      ImageFormat
	saved       uint64
}

// Saver defines the interface for writing frames to disk.
//
// Pixels are tightly packed rows, top to bottom. The Saver swizzles them into the byte order the
// encoders expect, optionally downscales, and writes the file atomically through a temp file in
// the destination directory.
type Saver interface {
	// Save encodes pixels and writes them to path. The format comes from the path's extension
	// unless one was fixed with WithFormat. A leading ~ in path is expanded.
	//
	// Parameters:
	//   - path: the destination file
	//   - pixels: tightly packed 4-byte pixels, at least width*height*4 bytes
	//   - width: image width in pixels
	//   - height: image height in pixels
	//   - format: byte order of pixels
	//
	// Returns:
	//   - error: ErrUnsupportedFormat, a size mismatch, or an I/O error
	Save(path string, pixels []byte, width, height int, format PixelFormat) error

	// Saved returns how many files were written successfully.
	Saved() uint64
}

var _ Saver = &saver{}

// NewSaver creates a Saver. Defaults: JPEG quality 90 and no scaling.
//
// Parameters:
//   - options: a variadic list of SaverBuilderOption functions
//
// Returns:
//   - Saver: the new saver
func NewSaver(options ...SaverBuilderOption) Saver {
	s := &saver{
		mu:          &sync.Mutex{},
		jpegQuality: 90,
		scale:       1,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *saver) Save(path string, pixels []byte, width, height int, format PixelFormat) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if need := width * height * 4; len(pixels) < need {
		return fmt.Errorf("pixel buffer is %d bytes, %dx%d needs %d", len(pixels), width, height, need)
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand %q: %w", path, err)
	}

	imageFormat := s.format
	if imageFormat == "" {
		if imageFormat, err = FormatFromPath(expanded); err != nil {
			return err
		}
	}

	nrgba, err := toImage(pixels, width, height, format)
	if err != nil {
		return err
	}
	var img image.Image = nrgba
	if s.scale > 0 && s.scale != 1 {
		w := max(uint(float64(width)*s.scale), 1)
		h := max(uint(float64(height)*s.scale), 1)
		img = resize.Resize(w, h, img, resize.Bilinear)
	}

	if err := writeAtomic(expanded, func(w io.Writer) error {
		return s.encode(w, img, imageFormat)
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.saved++
	s.mu.Unlock()
	return nil
}

func (s *saver) Saved() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

func (s *saver) encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImageFormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return enc.Encode(w, img)
	case ImageFormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: s.jpegQuality})
	case ImageFormatBMP:
		return bmp.Encode(w, img)
	case ImageFormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// toImage swizzles packed pixels into an NRGBA image.
func toImage(pixels []byte, width, height int, format PixelFormat) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	n := width * height * 4
	switch format {
	case PixelFormatRGBA8:
		copy(img.Pix, pixels[:n])
	case PixelFormatBGRA8:
		for i := 0; i < n; i += 4 {
			img.Pix[i+0] = pixels[i+2]
			img.Pix[i+1] = pixels[i+1]
			img.Pix[i+2] = pixels[i+0]
			img.Pix[i+3] = pixels[i+3]
		}
	default:
		return nil, fmt.Errorf("unknown pixel format %d", format)
	}
	return img, nil
}

// writeAtomic writes through a temp file in the destination directory and renames it into place,
// so readers never observe a half-written image.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
