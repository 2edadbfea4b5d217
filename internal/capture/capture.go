// Package capture turns the platform's asynchronous screenshot callback
// into a bounded synchronous call and pairs the result with a UI tree
// snapshot.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/device-bridge/internal/imaging"
	"github.com/mj1618/device-bridge/internal/pending"
	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

// LatestName is the cache file every capture overwrites.
const LatestName = "last_capture.png"

const timestampedPrefix = "capture-"

var (
	// ErrTimeout means the platform did not answer within the capture timeout.
	ErrTimeout = errors.New("screenshot timed out")
	// ErrNoDisplay means neither the default nor the active display resolved.
	ErrNoDisplay = errors.New("no active display available for screenshot")
	// ErrPanic means the platform panicked while the request was issued.
	ErrPanic = errors.New("screenshot request panicked")
)

// PlatformError carries the failure code reported by the platform.
type PlatformError struct {
	Code int
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("screenshot failed with platform code %d", e.Code)
}

// Source is what a capture needs from a device.
type Source interface {
	platform.Displays
	platform.Screenshotter
}

// Options configures a Capturer.
type Options struct {
	Timeout     time.Duration
	CacheDir    string  // "" = user cache dir
	Timestamped bool    // name files capture-<time>.png, keeping only the newest
	Scale       float64 // (0, 1]; 0 = 1
	RetainImage bool    // keep an owned copy of the written image in Shot
	Logger      *zap.Logger
}

// Shot describes one persisted frame.
type Shot struct {
	Path   string
	Native image.Point // frame size before scaling
	Image  image.Image // written image; only set with RetainImage
}

// Capturer takes one screenshot at a time. It holds no state between
// calls, so a timed-out capture leaves nothing behind.
type Capturer struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewCapturer resolves the cache directory and applies defaults.
func NewCapturer(opts Options) *Capturer {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{opts: opts, logger: logger.Named("capture"), now: time.Now}
}

// DefaultCacheDir is <user cache dir>/device-bridge, or a temp directory
// when the user has none.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "device-bridge")
}

// CacheDir returns the directory captures are written to.
func (c *Capturer) CacheDir() string { return c.opts.CacheDir }

// Capture requests a frame from src, waits for it and writes it to the
// cache directory.
func (c *Capturer) Capture(ctx context.Context, src Source) (Shot, error) {
	display, ok := src.DefaultDisplay()
	if !ok {
		display, ok = src.ActiveDisplay()
	}
	if !ok {
		return Shot{}, ErrNoDisplay
	}

	cell := pending.New[platform.Frame]()
	if err := c.request(src, display, cell); err != nil {
		return Shot{}, err
	}

	frame, err := cell.Wait(ctx, c.opts.Timeout)
	if err != nil {
		if errors.Is(err, pending.ErrTimeout) {
			c.logger.Warn("screenshot callback did not arrive",
				zap.Int("display", display), zap.Duration("timeout", c.opts.Timeout))
			return Shot{}, ErrTimeout
		}
		return Shot{}, err
	}
	defer c.closeFrame(frame)

	return c.persist(frame)
}

// request issues the platform call. A panic rejects the cell so a callback
// the platform still delivers afterwards closes its frame.
func (c *Capturer) request(src Source, display int, cell *pending.Cell[platform.Frame]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			c.logger.Error("screenshot request panicked", zap.Any("panic", r))
			if !cell.Reject(err) {
				// the frame arrived before the panic; nobody will read it
				if f, ferr := cell.Result(); ferr == nil && f != nil {
					c.closeFrame(f)
				}
			}
		}
	}()
	src.TakeScreenshot(display, platform.ScreenshotCallback{
		OnSuccess: func(f platform.Frame) {
			if f == nil {
				cell.Reject(errors.New("platform delivered an empty frame"))
				return
			}
			if !cell.Resolve(f) {
				c.logger.Debug("discarding late screenshot", zap.Int("display", display))
				c.closeFrame(f)
			}
		},
		OnFailure: func(code int) {
			cell.Reject(&PlatformError{Code: code})
		},
	})
	return nil
}

func (c *Capturer) closeFrame(f platform.Frame) {
	if err := f.Close(); err != nil {
		c.logger.Warn("closing frame", zap.Error(err))
	}
}

func (c *Capturer) persist(frame platform.Frame) (Shot, error) {
	img, err := frame.Image()
	if err != nil {
		return Shot{}, fmt.Errorf("reading frame: %w", err)
	}
	b := img.Bounds()
	out := imaging.Scale(img, c.opts.Scale)
	if c.opts.RetainImage && c.opts.Scale >= 1 {
		// the frame's pixels are released on Close
		out = imaging.ToRGBA(img)
	}

	data, err := imaging.EncodePNG(out)
	if err != nil {
		return Shot{}, err
	}
	path := c.targetPath()
	if err := imaging.WriteFileAtomic(path, data); err != nil {
		return Shot{}, fmt.Errorf("saving capture: %w", err)
	}
	if c.opts.Timestamped {
		c.pruneOlder(path)
	}

	shot := Shot{Path: path, Native: image.Pt(b.Dx(), b.Dy())}
	if c.opts.RetainImage {
		shot.Image = out
	}
	c.logger.Debug("capture saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return shot, nil
}

func (c *Capturer) targetPath() string {
	if !c.opts.Timestamped {
		return filepath.Join(c.opts.CacheDir, LatestName)
	}
	stamp := c.now().UTC().Format("20060102T150405.000000000")
	return filepath.Join(c.opts.CacheDir, timestampedPrefix+stamp+".png")
}

func (c *Capturer) pruneOlder(keep string) {
	matches, err := filepath.Glob(filepath.Join(c.opts.CacheDir, timestampedPrefix+"*.png"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if m == keep || !strings.HasPrefix(filepath.Base(m), timestampedPrefix) {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("removing old capture", zap.String("path", m), zap.Error(err))
		}
	}
}
