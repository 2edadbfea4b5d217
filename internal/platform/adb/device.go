package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

// Per-invocation limits. They sit above the capture and gesture timeouts
// so a hung adb process is always reaped.
const (
	dumpTimeout    = 15 * time.Second
	commandTimeout = 10 * time.Second
)

// Device is an adb-attached Android device.
type Device struct {
	name   string
	runner Runner
	logger *zap.Logger

	mu     sync.Mutex
	screen image.Point
}

// NewDevice returns a Device that issues every command through runner.
func NewDevice(name string, runner Runner, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Device{name: name, runner: runner, logger: logger.Named("adb").With(zap.String("device", name))}
}

func (d *Device) Name() string { return d.name }

// RootInActiveWindow dumps the hierarchy. A failed or empty dump is
// reported as no active window.
func (d *Device) RootInActiveWindow() model.Node {
	return d.RootInActiveWindowContext(context.Background())
}

// RootInActiveWindowContext is RootInActiveWindow bounded by ctx as well
// as the dump limit.
func (d *Device) RootInActiveWindowContext(ctx context.Context) model.Node {
	ctx, cancel := context.WithTimeout(ctx, dumpTimeout)
	defer cancel()

	out, err := d.runner.Run(ctx, "exec-out", "uiautomator", "dump", "/dev/tty")
	if err != nil {
		d.logger.Warn("ui dump failed", zap.Error(err))
		return nil
	}
	root, err := ParseHierarchy(out)
	if err != nil {
		d.logger.Warn("ui dump unreadable", zap.Error(err))
		return nil
	}
	if root == nil {
		return nil
	}
	return root
}

var (
	displayIDRe = regexp.MustCompile(`mDisplayId=(\d+)`)
	sizeRe      = regexp.MustCompile(`(\d+)x(\d+)`)
)

// DefaultDisplay returns the first display listed by dumpsys.
func (d *Device) DefaultDisplay() (int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := d.runner.Run(ctx, "shell", "dumpsys", "display")
	if err != nil {
		d.logger.Debug("dumpsys display failed", zap.Error(err))
		return 0, false
	}
	m := displayIDRe.FindSubmatch(out)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, false
	}
	return id, true
}

// ActiveDisplay falls back to the built-in display when the window
// manager reports a screen size for it.
func (d *Device) ActiveDisplay() (int, bool) {
	if _, ok := d.ScreenSize(); ok {
		return 0, true
	}
	return 0, false
}

// ScreenSize returns the size reported by `wm size`, cached after the
// first success. An override size wins over the physical one.
func (d *Device) ScreenSize() (image.Point, bool) {
	d.mu.Lock()
	cached := d.screen
	d.mu.Unlock()
	if cached != (image.Point{}) {
		return cached, true
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := d.runner.Run(ctx, "shell", "wm", "size")
	if err != nil {
		d.logger.Debug("wm size failed", zap.Error(err))
		return image.Point{}, false
	}
	matches := sizeRe.FindAllSubmatch(out, -1)
	if len(matches) == 0 {
		return image.Point{}, false
	}
	m := matches[len(matches)-1]
	w, _ := strconv.Atoi(string(m[1]))
	h, _ := strconv.Atoi(string(m[2]))
	p := image.Pt(w, h)

	d.mu.Lock()
	d.screen = p
	d.mu.Unlock()
	return p, true
}

// TakeScreenshot runs screencap on its own goroutine and reports through cb.
// A failed invocation reports the adb exit status as its code.
func (d *Device) TakeScreenshot(displayID int, cb platform.ScreenshotCallback) {
	args := []string{"exec-out", "screencap", "-p"}
	if displayID != 0 {
		args = append(args, "-d", strconv.Itoa(displayID))
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		out, err := d.runner.Run(ctx, args...)
		if err != nil {
			d.logger.Warn("screencap failed", zap.Error(err))
			cb.OnFailure(exitCode(err))
			return
		}
		if !bytes.HasPrefix(out, pngMagic) {
			d.logger.Warn("screencap returned no png", zap.Int("bytes", len(out)))
			cb.OnFailure(-1)
			return
		}
		cb.OnSuccess(&pngFrame{data: out})
	}()
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// DispatchGesture supports single-point taps only. A zero-distance swipe
// is used so the hold duration is honoured.
func (d *Device) DispatchGesture(g platform.Gesture, cb platform.GestureCallback) bool {
	p, hold, ok := g.IsTap()
	if !ok {
		d.logger.Info("refusing non-tap gesture", zap.Int("strokes", len(g.Strokes)))
		return false
	}
	ms := strconv.FormatInt(hold.Milliseconds(), 10)
	x, y := strconv.Itoa(p.X), strconv.Itoa(p.Y)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if _, err := d.runner.Run(ctx, "shell", "input", "swipe", x, y, x, y, ms); err != nil {
			d.logger.Warn("input swipe failed", zap.Error(err))
			cb.OnCancelled()
			return
		}
		cb.OnCompleted()
	}()
	return true
}

// AddMarker has no surface to draw on over adb; markers are logged.
func (d *Device) AddMarker(spec platform.MarkerSpec) (platform.OverlayView, error) {
	d.logger.Debug("tap marker", zap.Int("x", spec.X), zap.Int("y", spec.Y), zap.Int("size", spec.Size))
	return &logView{logger: d.logger}, nil
}

type logView struct {
	logger  *zap.Logger
	mu      sync.Mutex
	removed bool
}

func (v *logView) Animate(to platform.Appearance, dur time.Duration) {
	v.logger.Debug("tap marker animate", zap.Float64("alpha", to.Alpha), zap.Float64("scale", to.Scale), zap.Duration("duration", dur))
}

func (v *logView) Remove() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.removed {
		return errors.New("marker already removed")
	}
	v.removed = true
	return nil
}

// pngFrame decodes lazily so a frame discarded after a timeout costs no
// decode.
type pngFrame struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

func (f *pngFrame) Image() (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("frame closed")
	}
	img, err := png.Decode(bytes.NewReader(f.data))
	if err != nil {
		return nil, fmt.Errorf("decoding screencap: %w", err)
	}
	return img, nil
}

func (f *pngFrame) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("frame closed twice")
	}
	f.closed = true
	f.data = nil
	return nil
}
