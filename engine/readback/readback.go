// Package readback computes the row layout of GPU-to-CPU image copies and
// converts padded staging data back into tightly packed pixel rows.
package readback

import (
	"fmt"
)

// BytesPerPixelBGRA8 is the texel size of the BGRA8 targets the harness renders to.
const BytesPerPixelBGRA8 = 4

// RowLayout describes how an image of Width x Height texels is laid out in a
// staging buffer whose rows must start on an alignment boundary.
type RowLayout struct {
	Width               int
	Height              int
	BytesPerPixel       int
	Alignment           int
	UnpaddedBytesPerRow int
	PaddedBytesPerRow   int
}

// ComputeRowLayout returns the layout for copying a width x height image with
// bytesPerPixel texels into a buffer whose row stride must be a multiple of alignment.
//
// The result is never cached: call it again whenever the surface size changes.
//
// Parameters:
//   - width: image width in texels
//   - height: image height in texels
//   - bytesPerPixel: size of one texel in bytes
//   - alignment: the device's row copy alignment, e.g. wgpu.CopyBytesPerRowAlignment
//
// Returns:
//   - RowLayout: the computed layout; PaddedBytesPerRow is a multiple of alignment and never
//     smaller than UnpaddedBytesPerRow
func ComputeRowLayout(width, height, bytesPerPixel, alignment int) RowLayout {
	if alignment < 1 {
		alignment = 1
	}
	unpadded := width * bytesPerPixel
	padding := (alignment - unpadded%alignment) % alignment
	return RowLayout{
		Width:               width,
		Height:              height,
		BytesPerPixel:       bytesPerPixel,
		Alignment:           alignment,
		UnpaddedBytesPerRow: unpadded,
		PaddedBytesPerRow:   unpadded + padding,
	}
}

// BufferSize is the staging buffer size needed to hold the padded image.
func (l RowLayout) BufferSize() uint64 {
	return uint64(l.PaddedBytesPerRow) * uint64(l.Height)
}

// PackedSize is the size of the image once the row padding is stripped.
func (l RowLayout) PackedSize() int {
	return l.UnpaddedBytesPerRow * l.Height
}

// HasPadding reports whether rows carry trailing padding bytes.
func (l RowLayout) HasPadding() bool {
	return l.PaddedBytesPerRow != l.UnpaddedBytesPerRow
}

// StripPadding copies the first UnpaddedBytesPerRow bytes of every padded row
// into a new tightly packed buffer, preserving top-to-bottom row order.
func StripPadding(padded []byte, layout RowLayout) ([]byte, error) {
	if uint64(len(padded)) < layout.BufferSize() {
		return nil, fmt.Errorf("staging data is %d bytes, layout %dx%d needs %d", len(padded), layout.Width, layout.Height, layout.BufferSize())
	}

	out := make([]byte, layout.PackedSize())
	if !layout.HasPadding() {
		copy(out, padded)
		return out, nil
	}

	for row := 0; row < layout.Height; row++ {
		src := padded[row*layout.PaddedBytesPerRow : row*layout.PaddedBytesPerRow+layout.UnpaddedBytesPerRow]
		copy(out[row*layout.UnpaddedBytesPerRow:], src)
	}
	return out, nil
}

// PadRows is the inverse of StripPadding. The software renderer uses it to write
// texels into a staging buffer the same way a GPU copy would.
func PadRows(dst, packed []byte, layout RowLayout) error {
	if uint64(len(dst)) < layout.BufferSize() {
		return fmt.Errorf("staging buffer is %d bytes, layout %dx%d needs %d", len(dst), layout.Width, layout.Height, layout.BufferSize())
	}
	if len(packed) < layout.PackedSize() {
		return fmt.Errorf("packed image is %d bytes, layout %dx%d needs %d", len(packed), layout.Width, layout.Height, layout.PackedSize())
	}

	for row := 0; row < layout.Height; row++ {
		copy(dst[row*layout.PaddedBytesPerRow:], packed[row*layout.UnpaddedBytesPerRow:(row+1)*layout.UnpaddedBytesPerRow])
	}
	return nil
}
