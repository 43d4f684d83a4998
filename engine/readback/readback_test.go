package readback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRowLayoutAlreadyAligned(t *testing.T) {
	layout := ComputeRowLayout(512, 512, BytesPerPixelBGRA8, 256)

	assert.Equal(t, 2048, layout.UnpaddedBytesPerRow)
	assert.Equal(t, 2048, layout.PaddedBytesPerRow)
	assert.False(t, layout.HasPadding())
	assert.Equal(t, uint64(2048*512), layout.BufferSize())
}

func TestComputeRowLayoutPadsToAlignment(t *testing.T) {
	layout := ComputeRowLayout(300, 10, BytesPerPixelBGRA8, 256)

	assert.Equal(t, 1200, layout.UnpaddedBytesPerRow)
	// 1200 mod 256 = 176, so 80 bytes of padding bring the row to 5 * 256.
	assert.Equal(t, 1280, layout.PaddedBytesPerRow)
	assert.True(t, layout.HasPadding())
	assert.Equal(t, uint64(12800), layout.BufferSize())
	assert.Equal(t, 12000, layout.PackedSize())
}

func TestComputeRowLayoutInvariants(t *testing.T) {
	for _, alignment := range []int{1, 4, 64, 256, 300} {
		for width := 1; width <= 700; width += 37 {
			layout := ComputeRowLayout(width, 3, BytesPerPixelBGRA8, alignment)

			assert.Zero(t, layout.PaddedBytesPerRow%alignment, "width=%d alignment=%d", width, alignment)
			assert.GreaterOrEqual(t, layout.PaddedBytesPerRow, width*4)
			assert.Less(t, layout.PaddedBytesPerRow-layout.UnpaddedBytesPerRow, alignment)
			if (width*4)%alignment == 0 {
				assert.Equal(t, width*4, layout.PaddedBytesPerRow)
			}
		}
	}
}

func TestComputeRowLayoutFollowsNewDimensions(t *testing.T) {
	before := ComputeRowLayout(512, 512, BytesPerPixelBGRA8, 256)
	after := ComputeRowLayout(300, 200, BytesPerPixelBGRA8, 256)

	assert.NotEqual(t, before, after)
	assert.Equal(t, 300, after.Width)
	assert.Equal(t, 200, after.Height)
	assert.Equal(t, 1280, after.PaddedBytesPerRow)
}

func TestStripPaddingRestoresRows(t *testing.T) {
	layout := ComputeRowLayout(300, 10, BytesPerPixelBGRA8, 256)

	padded := make([]byte, layout.BufferSize())
	for row := 0; row < layout.Height; row++ {
		line := padded[row*layout.PaddedBytesPerRow : (row+1)*layout.PaddedBytesPerRow]
		for i := range line {
			if i < layout.UnpaddedBytesPerRow {
				line[i] = byte(row % 256)
			} else {
				line[i] = 0xEE
			}
		}
	}

	packed, err := StripPadding(padded, layout)
	require.NoError(t, err)
	require.Len(t, packed, layout.PackedSize())

	for row := 0; row < layout.Height; row++ {
		line := packed[row*layout.UnpaddedBytesPerRow : (row+1)*layout.UnpaddedBytesPerRow]
		for i, b := range line {
			if b != byte(row%256) {
				t.Fatalf("row %d byte %d = %#x, want %#x", row, i, b, row%256)
			}
		}
	}
	assert.NotContains(t, packed, byte(0xEE))
}

func TestStripPaddingNoPaddingCopies(t *testing.T) {
	layout := ComputeRowLayout(64, 2, BytesPerPixelBGRA8, 256)
	src := make([]byte, layout.BufferSize())
	for i := range src {
		src[i] = byte(i)
	}

	packed, err := StripPadding(src, layout)
	require.NoError(t, err)
	assert.Equal(t, src, packed)

	packed[0] = 0xFF
	assert.Equal(t, byte(0), src[0], "result must not alias the mapped range")
}

func TestStripPaddingShortBuffer(t *testing.T) {
	layout := ComputeRowLayout(300, 10, BytesPerPixelBGRA8, 256)

	_, err := StripPadding(make([]byte, layout.BufferSize()-1), layout)
	assert.Error(t, err)
}

func TestPadRowsRoundTrip(t *testing.T) {
	layout := ComputeRowLayout(33, 7, BytesPerPixelBGRA8, 256)
	packed := make([]byte, layout.PackedSize())
	for i := range packed {
		packed[i] = byte(i * 7)
	}

	staging := make([]byte, layout.BufferSize())
	require.NoError(t, PadRows(staging, packed, layout))

	got, err := StripPadding(staging, layout)
	require.NoError(t, err)
	assert.Equal(t, packed, got)
}

func TestPadRowsRejectsSmallDestination(t *testing.T) {
	layout := ComputeRowLayout(33, 7, BytesPerPixelBGRA8, 256)

	err := PadRows(make([]byte, 10), make([]byte, layout.PackedSize()), layout)
	assert.Error(t, err)
}
