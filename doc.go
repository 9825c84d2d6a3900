// Package camview captures live camera frames and hands them to a display
// surface on the UI goroutine.
//
// It covers the path from the capture device to the window: building the
// acquisition pipeline, validating each frame against the one negotiated
// pixel format, and moving the converted buffer across goroutines without
// blocking the capture source or touching a window that no longer exists.
//
// # Quick Start
//
//	registry := camview.NewSurfaceRegistry()
//	id := registry.Register(window)            // window implements DisplaySurface
//	queue := uiloop.New(0)                     // drained by the UI goroutine
//
//	bridge := camview.NewFrameBridge(registry, id, queue)
//
//	graph, err := camview.Build(camview.GraphConfig{
//	    DevicePath: "/dev/video0",
//	    Geometry:   camview.WindowGeometry{Width: 640, Height: 480},
//	}, bridge)
//	if err != nil {
//	    log.Fatal(err) // *GraphConstructionError
//	}
//	defer graph.Stop()
//
//	if err := graph.Start(ctx); err != nil {
//	    log.Fatal(err) // *StateTransitionError, do not show the window
//	}
//
// # Pipeline
//
//	source (v4l2src) → convert (videoconvert) → filter (RGB, W×H) → sink (appsink)
//
// The filter fixes the sink to packed RGB at the window size. Convert accepts
// nothing else: any other declared format is a ConversionError, never a silent
// reinterpretation.
//
// # Hand-off
//
// FrameBridge.OnSample runs on the runtime's capture thread. It converts the
// frame into an owned PixelBuffer, stores it in a single-slot mailbox and
// posts at most one delivery task to the UI queue. When the UI is slow, newer
// frames overwrite older ones instead of queueing. The delivery task resolves
// the surface through the SurfaceRegistry when it runs; after the window has
// unregistered, delivery is a silent no-op.
//
// # Errors
//
//   - GraphConstructionError, StateTransitionError: fatal at startup
//   - ConversionError (UnsupportedFormat, SizeMismatch): per frame, logged and dropped
//   - ErrSurfaceGone: expected during shutdown, counted but not logged as an error
//
// # Runtimes
//
// Backends register by name with RegisterRuntime. The GStreamer backend lives
// in internal/gstpipe ("gstreamer"); internal/synthetic ("synthetic") drives
// the same callback path from a plain goroutine for tests and demos.
package camview
