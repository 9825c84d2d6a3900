package synthetic

import "github.com/e7canasta/camview"

var bars = [][3]byte{
	{0xff, 0xff, 0xff}, // white
	{0xff, 0xff, 0x00}, // yellow
	{0x00, 0xff, 0xff}, // cyan
	{0x00, 0xff, 0x00}, // green
	{0xff, 0x00, 0xff}, // magenta
	{0xff, 0x00, 0x00}, // red
	{0x00, 0x00, 0xff}, // blue
	{0x00, 0x00, 0x00}, // black
}

// ColorBars renders eight vertical bars in RGB with GStreamer's padded
// stride. The bars shift by one column per frame so motion is visible.
func ColorBars(width, height int, frame uint64) camview.RawFrame {
	if width <= 0 || height <= 0 {
		return camview.RawFrame{Width: width, Height: height, Format: camview.FormatRGB}
	}

	stride := camview.PackedStride(camview.FormatRGB, width)
	data := make([]byte, stride*height)

	barWidth := width / len(bars)
	if barWidth == 0 {
		barWidth = 1
	}
	shift := int(frame % uint64(width))

	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			idx := ((x + shift) % width) / barWidth
			if idx >= len(bars) {
				idx = len(bars) - 1
			}
			c := bars[idx]
			row[x*3], row[x*3+1], row[x*3+2] = c[0], c[1], c[2]
		}
	}

	return camview.RawFrame{
		Data:   data,
		Width:  width,
		Height: height,
		Stride: stride,
		Format: camview.FormatRGB,
	}
}

// Solid returns a tightly packed RGB frame filled with one colour.
func Solid(width, height int, r, g, b byte) camview.RawFrame {
	data := make([]byte, width*height*3)
	for i := 0; i < len(data); i += 3 {
		data[i], data[i+1], data[i+2] = r, g, b
	}
	return camview.RawFrame{
		Data:   data,
		Width:  width,
		Height: height,
		Format: camview.FormatRGB,
	}
}
