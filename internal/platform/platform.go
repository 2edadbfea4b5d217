package platform

import (
	"context"
	"image"
	"time"

	"github.com/mj1618/device-bridge/internal/model"
)

// TreeReader exposes the live UI element tree of the foreground window.
type TreeReader interface {
	// RootInActiveWindow returns the root node, or nil when no window is
	// active. A nil root is not an error.
	RootInActiveWindow() model.Node
}

// ContextTreeReader is implemented by devices whose tree read can block,
// so a caller's deadline or cancellation can cut it short.
type ContextTreeReader interface {
	RootInActiveWindowContext(ctx context.Context) model.Node
}

// Displays resolves which display a capture should target.
type Displays interface {
	DefaultDisplay() (int, bool)
	ActiveDisplay() (int, bool)
}

// Frame is one raw captured screen image. The receiver of a Frame owns it
// and must Close it exactly once.
type Frame interface {
	Image() (image.Image, error)
	Close() error
}

// ScreenshotCallback receives the outcome of one TakeScreenshot request.
// Exactly one of the two funcs is called, possibly from another goroutine
// and possibly after the requester stopped waiting.
type ScreenshotCallback struct {
	OnSuccess func(Frame)
	OnFailure func(code int)
}

// Screenshotter captures the screen asynchronously.
type Screenshotter interface {
	TakeScreenshot(displayID int, cb ScreenshotCallback)
}

// GestureCallback receives the outcome of one dispatched gesture.
// Exactly one of the two funcs is called.
type GestureCallback struct {
	OnCompleted func()
	OnCancelled func()
}

// GestureInjector submits synthetic gestures.
type GestureInjector interface {
	// DispatchGesture reports whether the gesture was accepted for
	// dispatch. When it returns false no callback will fire.
	DispatchGesture(g Gesture, cb GestureCallback) bool
}

// OverlayHost draws input-transparent markers above all other content.
type OverlayHost interface {
	AddMarker(spec MarkerSpec) (OverlayView, error)
}

// OverlayView is one live marker. Animate starts a transition and returns
// immediately; completion is not reported.
type OverlayView interface {
	Animate(to Appearance, d time.Duration)
	Remove() error
}

// Device is everything the bridge needs from an attached device-state
// provider.
type Device interface {
	Name() string
	TreeReader
	Displays
	Screenshotter
	GestureInjector
	OverlayHost
}
