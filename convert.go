package camview

import "math"

// Convert validates a raw frame and copies it into a freshly allocated
// PixelBuffer.
//
// Only FormatRGB is accepted; any other declared format is reported as
// UnsupportedFormat before anything is allocated. The copy is mandatory: the
// raw data belongs to the capture callback and must not outlive it. Rows are
// copied one by one when the stride carries padding, so the result is always
// tightly packed.
func Convert(frame RawFrame) (PixelBuffer, error) {
	if frame.Format != FormatRGB {
		return PixelBuffer{}, &ConversionError{Kind: UnsupportedFormat, Format: frame.Format}
	}

	mismatch := func(expected int) error {
		return &ConversionError{
			Kind:     SizeMismatch,
			Format:   frame.Format,
			Width:    frame.Width,
			Height:   frame.Height,
			Stride:   frame.Stride,
			Expected: expected,
			Actual:   len(frame.Data),
		}
	}

	bpp := FormatRGB.BytesPerPixel()
	if frame.Width <= 0 || frame.Height <= 0 || frame.Width > math.MaxInt/bpp {
		return PixelBuffer{}, mismatch(0)
	}

	rowBytes := frame.Width * bpp
	stride := frame.Stride
	if stride == 0 {
		stride = rowBytes
	}

	// Both products below must fit in an int; a wrapped size could match
	// len(Data) and pass the length check.
	if stride < rowBytes || stride > math.MaxInt/frame.Height || rowBytes > math.MaxInt/frame.Height {
		return PixelBuffer{}, mismatch(0)
	}
	if expected := stride * frame.Height; len(frame.Data) != expected {
		return PixelBuffer{}, mismatch(expected)
	}

	data := make([]byte, rowBytes*frame.Height)
	if stride == rowBytes {
		copy(data, frame.Data)
	} else {
		for y := 0; y < frame.Height; y++ {
			copy(data[y*rowBytes:(y+1)*rowBytes], frame.Data[y*stride:y*stride+rowBytes])
		}
	}

	return PixelBuffer{
		Data:      data,
		Width:     frame.Width,
		Height:    frame.Height,
		Seq:       frame.Seq,
		Timestamp: frame.Timestamp,
	}, nil
}

// PackedStride returns GStreamer's default row pitch for a packed format:
// the row size rounded up to a multiple of 4.
func PackedStride(format FrameFormat, width int) int {
	return (width*format.BytesPerPixel() + 3) &^ 3
}
