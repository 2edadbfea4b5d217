// Package fake provides an in-memory device-state provider. Callbacks are
// delivered from goroutines, as a real platform would, and every
// behaviour can be switched at runtime so tests can drive each outcome.
package fake

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/platform"
)

// ScreenshotMode selects how TakeScreenshot responds.
type ScreenshotMode int

const (
	ScreenshotSucceed ScreenshotMode = iota
	ScreenshotFail
	ScreenshotNever // hold the callback until ReleasePending
	ScreenshotPanic
	ScreenshotDeliverThenPanic // succeed synchronously, then panic
)

// GestureMode selects how DispatchGesture responds.
type GestureMode int

const (
	GestureComplete GestureMode = iota
	GestureCancel
	GestureRefuse // DispatchGesture returns false
	GestureNever  // accepted, no callback
)

// Device is an in-memory platform.Device.
type Device struct {
	name string

	mu           sync.Mutex
	root         *Node
	noDisplay    bool
	shotMode     ScreenshotMode
	failCode     int
	delay        time.Duration
	img          image.Image
	gestureMode  GestureMode
	screenshots  int
	gestures     []platform.Gesture
	held         []platform.ScreenshotCallback
	frames       []*Frame
	markers      []platform.MarkerSpec
	animations   []platform.Appearance
	liveViews    int
	maxLiveViews int
}

// NewDevice returns a device showing DemoTree and a small solid frame.
func NewDevice(name string) *Device {
	img := image.NewRGBA(image.Rect(0, 0, 108, 240))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 32, G: 96, B: 160, A: 255}}, image.Point{}, draw.Src)
	return &Device{name: name, root: DemoTree(), img: img}
}

func (d *Device) Name() string { return d.name }

// SetRoot replaces the UI tree; nil means no active window.
func (d *Device) SetRoot(root *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = root
}

// SetNoDisplay makes both display lookups fail.
func (d *Device) SetNoDisplay(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.noDisplay = v
}

// SetScreenshotMode changes the outcome of later captures. code is used by
// ScreenshotFail.
func (d *Device) SetScreenshotMode(m ScreenshotMode, code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shotMode = m
	d.failCode = code
}

// SetImage changes the frame returned by successful captures.
func (d *Device) SetImage(img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.img = img
}

// SetCallbackDelay delays every asynchronous callback.
func (d *Device) SetCallbackDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// SetGestureMode changes the outcome of later gestures.
func (d *Device) SetGestureMode(m GestureMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gestureMode = m
}

func (d *Device) RootInActiveWindow() model.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return nil
	}
	return d.root
}

func (d *Device) DefaultDisplay() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return 0, !d.noDisplay
}

func (d *Device) ActiveDisplay() (int, bool) {
	return d.DefaultDisplay()
}

func (d *Device) TakeScreenshot(displayID int, cb platform.ScreenshotCallback) {
	d.mu.Lock()
	d.screenshots++
	mode, code, delay, img := d.shotMode, d.failCode, d.delay, d.img
	if mode == ScreenshotNever {
		d.held = append(d.held, cb)
	}
	d.mu.Unlock()

	switch mode {
	case ScreenshotPanic:
		panic(fmt.Sprintf("fake: screenshot service crashed on display %d", displayID))
	case ScreenshotDeliverThenPanic:
		cb.OnSuccess(d.newFrame(img))
		panic(fmt.Sprintf("fake: screenshot service crashed after delivery on display %d", displayID))
	case ScreenshotNever:
		return
	case ScreenshotFail:
		go func() {
			time.Sleep(delay)
			cb.OnFailure(code)
		}()
	default:
		f := d.newFrame(img)
		go func() {
			time.Sleep(delay)
			cb.OnSuccess(f)
		}()
	}
}

// ReleasePending delivers a success callback to every capture held by
// ScreenshotNever and returns how many were released.
func (d *Device) ReleasePending() int {
	d.mu.Lock()
	held, img := d.held, d.img
	d.held = nil
	d.mu.Unlock()
	for _, cb := range held {
		cb.OnSuccess(d.newFrame(img))
	}
	return len(held)
}

func (d *Device) newFrame(img image.Image) *Frame {
	f := &Frame{img: img}
	d.mu.Lock()
	d.frames = append(d.frames, f)
	d.mu.Unlock()
	return f
}

// Screenshots returns the number of capture requests received.
func (d *Device) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screenshots
}

// OpenFrames returns the number of delivered frames not yet closed.
func (d *Device) OpenFrames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, f := range d.frames {
		if !f.closed.Load() {
			n++
		}
	}
	return n
}

func (d *Device) DispatchGesture(g platform.Gesture, cb platform.GestureCallback) bool {
	d.mu.Lock()
	d.gestures = append(d.gestures, g)
	mode, delay := d.gestureMode, d.delay
	d.mu.Unlock()

	switch mode {
	case GestureRefuse:
		return false
	case GestureNever:
		return true
	case GestureCancel:
		go func() {
			time.Sleep(delay)
			cb.OnCancelled()
		}()
	default:
		hold := time.Duration(0)
		if len(g.Strokes) > 0 {
			hold = g.Strokes[0].Duration
		}
		go func() {
			time.Sleep(delay + hold)
			cb.OnCompleted()
		}()
	}
	return true
}

// Gestures returns every gesture submitted so far.
func (d *Device) Gestures() []platform.Gesture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]platform.Gesture(nil), d.gestures...)
}

func (d *Device) AddMarker(spec platform.MarkerSpec) (platform.OverlayView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.markers = append(d.markers, spec)
	d.liveViews++
	if d.liveViews > d.maxLiveViews {
		d.maxLiveViews = d.liveViews
	}
	return &view{dev: d}, nil
}

// Markers returns every marker added so far.
func (d *Device) Markers() []platform.MarkerSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]platform.MarkerSpec(nil), d.markers...)
}

// LiveViews returns the number of markers currently on screen and the
// highest number ever on screen at once.
func (d *Device) LiveViews() (live, max int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.liveViews, d.maxLiveViews
}

// Animations returns every appearance target requested so far.
func (d *Device) Animations() []platform.Appearance {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]platform.Appearance(nil), d.animations...)
}

var errViewRemoved = errors.New("fake: view not attached to window manager")

type view struct {
	dev     *Device
	removed bool
}

func (v *view) Animate(to platform.Appearance, _ time.Duration) {
	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()
	v.dev.animations = append(v.dev.animations, to)
}

func (v *view) Remove() error {
	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()
	if v.removed {
		return errViewRemoved
	}
	v.removed = true
	v.dev.liveViews--
	return nil
}

// Frame is an in-memory captured frame.
type Frame struct {
	img    image.Image
	closed atomic.Bool
}

func (f *Frame) Image() (image.Image, error) {
	if f.closed.Load() {
		return nil, errors.New("fake: frame already closed")
	}
	return f.img, nil
}

func (f *Frame) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return errors.New("fake: frame closed twice")
	}
	return nil
}
