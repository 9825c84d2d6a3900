package gstpipe

import "github.com/e7canasta/camview"

// strideFor picks the row pitch for a packed buffer: tight when the data is
// exactly rows of pixels, GStreamer's 4-byte aligned pitch otherwise.
func strideFor(format camview.FrameFormat, width, height, size int) int {
	bpp := format.BytesPerPixel()
	if bpp == 0 || width <= 0 || height <= 0 {
		return 0
	}
	if size == width*bpp*height {
		return 0
	}
	return camview.PackedStride(format, width)
}
