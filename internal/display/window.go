// Package display renders camview frames in an Ebitengine window.
package display

import (
	"math"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/e7canasta/camview"
	"github.com/e7canasta/camview/internal/uiloop"
)

// Window is the DisplaySurface backed by an Ebitengine game loop.
//
// Update drains the UI queue, so every delivery task and every
// SetVideoFrame call runs on the game goroutine. Frame state needs no lock.
type Window struct {
	registry *camview.SurfaceRegistry
	queue    *uiloop.Queue
	id       camview.SurfaceID

	geometry camview.WindowGeometry
	title    string

	frame   camview.PixelBuffer
	dirty   bool
	rgba    []byte
	texture *ebiten.Image
	frames  uint64

	closing atomic.Bool
}

// NewWindow creates a window of the given size and registers it.
func NewWindow(registry *camview.SurfaceRegistry, queue *uiloop.Queue, geometry camview.WindowGeometry, title string) *Window {
	w := &Window{
		registry: registry,
		queue:    queue,
		geometry: geometry,
		title:    title,
	}
	w.id = registry.Register(w)
	return w
}

// ID is the handle the frame bridge dispatches to.
func (w *Window) ID() camview.SurfaceID {
	return w.id
}

// SetVideoFrame stores buf for the next Draw. UI goroutine only.
func (w *Window) SetVideoFrame(buf camview.PixelBuffer) {
	w.frame = buf
	w.dirty = true
	w.frames++
}

// Frames counts SetVideoFrame calls.
func (w *Window) Frames() uint64 {
	return w.frames
}

// Close asks the game loop to end at its next Update. Safe from any goroutine.
func (w *Window) Close() {
	w.closing.Store(true)
}

// Run opens the window and blocks until it is closed. Must be called from
// the main goroutine. The window is unregistered before Run returns, so
// deliveries still queued afterwards become no-ops.
func (w *Window) Run() error {
	defer w.registry.Unregister(w.id)

	ebiten.SetWindowSize(w.geometry.Width, w.geometry.Height)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(w)
}

// --- ebiten.Game interface ---

func (w *Window) Update() error {
	if w.closing.Load() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	w.queue.Drain()
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.frame.Data == nil {
		return
	}

	if w.dirty {
		if w.texture == nil ||
			w.texture.Bounds().Dx() != w.frame.Width ||
			w.texture.Bounds().Dy() != w.frame.Height {
			w.texture = ebiten.NewImage(w.frame.Width, w.frame.Height)
		}
		w.rgba = w.frame.RGBA(w.rgba)
		w.texture.WritePixels(w.rgba)
		w.dirty = false
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), float64(w.frame.Width), float64(w.frame.Height))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(w.texture, op)
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
