package camview

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func rgbFrame(w, h int) RawFrame {
	data := make([]byte, w*h*3)
	for i := range data {
		data[i] = byte(i)
	}
	return RawFrame{Data: data, Width: w, Height: h, Format: FormatRGB, Seq: 7}
}

func TestConvert_RGBExactSize(t *testing.T) {
	frame := rgbFrame(640, 480)

	buf, err := Convert(frame)
	if err != nil {
		t.Fatalf("Convert() failed: %v", err)
	}
	if len(buf.Data) != 921600 {
		t.Errorf("len(Data) = %d, want 921600", len(buf.Data))
	}
	if buf.Width != 640 || buf.Height != 480 {
		t.Errorf("geometry = %dx%d, want 640x480", buf.Width, buf.Height)
	}
	if buf.Seq != 7 {
		t.Errorf("Seq = %d, want 7", buf.Seq)
	}
	if !bytes.Equal(buf.Data, frame.Data) {
		t.Error("pixel data differs from source")
	}
}

func TestConvert_CopiesData(t *testing.T) {
	frame := rgbFrame(4, 2)

	buf, err := Convert(frame)
	if err != nil {
		t.Fatalf("Convert() failed: %v", err)
	}

	// The capture runtime reuses its buffer once the callback returns.
	for i := range frame.Data {
		frame.Data[i] = 0
	}
	if buf.Data[1] != 1 {
		t.Error("PixelBuffer aliases the raw frame data")
	}
}

func TestConvert_Idempotent(t *testing.T) {
	frame := rgbFrame(8, 8)

	a, errA := Convert(frame)
	b, errB := Convert(frame)
	if errA != nil || errB != nil {
		t.Fatalf("Convert() failed: %v, %v", errA, errB)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Error("two conversions of the same frame differ")
	}
	if &a.Data[0] == &b.Data[0] {
		t.Error("conversions share backing storage")
	}
}

func TestConvert_UnsupportedFormat(t *testing.T) {
	formats := []FrameFormat{FormatUnknown, FormatBGR, FormatRGBx, FormatRGBA, FormatYUY2, FormatNV12, FormatI420, FormatMJPEG}

	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			frame := rgbFrame(4, 4)
			frame.Format = f

			buf, err := Convert(frame)
			if !errors.Is(err, &ConversionError{Kind: UnsupportedFormat}) {
				t.Fatalf("Convert() error = %v, want UnsupportedFormat", err)
			}
			if buf.Data != nil {
				t.Error("buffer allocated for rejected frame")
			}
		})
	}
}

func TestConvert_SizeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		frame RawFrame
	}{
		{"short data", RawFrame{Data: make([]byte, 10), Width: 4, Height: 4, Format: FormatRGB}},
		{"long data", RawFrame{Data: make([]byte, 4*4*3+1), Width: 4, Height: 4, Format: FormatRGB}},
		{"empty data", RawFrame{Width: 4, Height: 4, Format: FormatRGB}},
		{"zero width", RawFrame{Data: make([]byte, 12), Width: 0, Height: 4, Format: FormatRGB}},
		{"negative height", RawFrame{Data: make([]byte, 12), Width: 4, Height: -1, Format: FormatRGB}},
		{"stride below row", RawFrame{Data: make([]byte, 8*4), Width: 4, Height: 4, Stride: 8, Format: FormatRGB}},
		{"stride length mismatch", RawFrame{Data: make([]byte, 4*4*3), Width: 4, Height: 4, Stride: 16, Format: FormatRGB}},
		{"stride overflows size", RawFrame{Width: 1, Height: 4, Stride: math.MaxInt / 2, Format: FormatRGB}},
		{"geometry overflows size", RawFrame{Width: math.MaxInt / 4, Height: math.MaxInt / 4, Format: FormatRGB}},
		{"width overflows row", RawFrame{Width: math.MaxInt/3 + 1, Height: 1, Format: FormatRGB}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.frame)

			var convErr *ConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("Convert() error = %v, want *ConversionError", err)
			}
			if convErr.Kind != SizeMismatch {
				t.Errorf("Kind = %v, want %v", convErr.Kind, SizeMismatch)
			}
			if convErr.Actual != len(tt.frame.Data) {
				t.Errorf("Actual = %d, want %d", convErr.Actual, len(tt.frame.Data))
			}
		})
	}
}

func TestConvert_PaddedStride(t *testing.T) {
	// 5 px wide: 15 bytes per row, 16 with padding.
	const w, h = 5, 3
	stride := PackedStride(FormatRGB, w)
	if stride != 16 {
		t.Fatalf("PackedStride = %d, want 16", stride)
	}

	data := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w*3; x++ {
			data[y*stride+x] = byte(y*100 + x)
		}
		data[y*stride+15] = 0xee // padding
	}

	buf, err := Convert(RawFrame{Data: data, Width: w, Height: h, Stride: stride, Format: FormatRGB})
	if err != nil {
		t.Fatalf("Convert() failed: %v", err)
	}
	if len(buf.Data) != w*h*3 {
		t.Fatalf("len(Data) = %d, want %d", len(buf.Data), w*h*3)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w*3; x++ {
			if got := buf.Data[y*w*3+x]; got != byte(y*100+x) {
				t.Fatalf("pixel byte (%d,%d) = %d, want %d", y, x, got, byte(y*100+x))
			}
		}
	}
	if bytes.IndexByte(buf.Data, 0xee) >= 0 {
		t.Error("row padding leaked into packed buffer")
	}
}

func TestConvert_MalformedNeverPanics(t *testing.T) {
	frames := []RawFrame{
		{},
		{Format: FormatRGB},
		{Format: FormatRGB, Width: 1 << 15, Height: 1 << 15},
		{Format: FormatRGB, Width: 2, Height: 2, Stride: -1, Data: make([]byte, 12)},
		{Format: FrameFormat(99), Data: []byte{1, 2, 3}},
		{Format: FormatRGB, Width: 1, Height: 4, Stride: math.MaxInt / 2},
		{Format: FormatRGB, Width: math.MaxInt / 4, Height: math.MaxInt / 4},
		{Format: FormatRGB, Width: 3, Height: math.MaxInt / 4, Stride: 16, Data: make([]byte, 16)},
	}

	for i, f := range frames {
		buf, err := Convert(f)
		if err == nil {
			t.Errorf("frame %d: Convert() accepted %dx%d with %d bytes", i, f.Width, f.Height, len(buf.Data))
			continue
		}
		if !errors.Is(err, &ConversionError{}) {
			t.Errorf("frame %d: error = %v, want *ConversionError", i, err)
		}
	}
}
