// Package gesture injects taps and waits, bounded, for the platform to
// report how they ended.
package gesture

import (
	"context"
	"errors"
	"time"

	"github.com/mj1618/device-bridge/internal/pending"
	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRejected is returned in strict mode when the platform cancels a tap.
var ErrRejected = errors.New("gesture cancelled by the platform")

var errCancelled = errors.New("cancelled")

// Request is a tap at screen coordinates. Coordinates are not bounds
// checked; the platform decides what an off-screen tap does.
type Request struct {
	X, Y int
}

// TapShower displays tap feedback. ShowTap must not block.
type TapShower interface {
	ShowTap(host platform.OverlayHost, x, y int)
}

// Target is what a tap needs from a device.
type Target interface {
	platform.GestureInjector
	platform.OverlayHost
}

// Options configures a Dispatcher.
type Options struct {
	Hold          time.Duration
	Timeout       time.Duration
	RatePerSecond float64 // 0 = unlimited
	Strict        bool
	Logger        *zap.Logger
}

// Dispatcher submits one tap per call.
type Dispatcher struct {
	opts    Options
	limiter *rate.Limiter
	overlay TapShower
	logger  *zap.Logger
}

// NewDispatcher returns a Dispatcher. overlay may be nil.
func NewDispatcher(opts Options, overlay TapShower) *Dispatcher {
	if opts.Hold <= 0 {
		opts.Hold = 50 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{opts: opts, overlay: overlay, logger: logger.Named("gesture")}
	if opts.RatePerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return d
}

// Dispatch taps at req and reports whether the platform completed it.
// A refused submission, a rate-limit wait that cannot fit in ctx, a
// cancellation and a missing callback all yield false. Only a done ctx
// yields an error, plus ErrRejected for a refusal or cancellation in
// strict mode.
func (d *Dispatcher) Dispatch(ctx context.Context, dev Target, req Request) (bool, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			d.logger.Info("tap rate limited", zap.Int("x", req.X), zap.Int("y", req.Y), zap.Error(err))
			return false, d.refused()
		}
	}

	if d.overlay != nil {
		d.overlay.ShowTap(dev, req.X, req.Y)
	}

	cell := pending.New[bool]()
	accepted := dev.DispatchGesture(platform.Tap(req.X, req.Y, d.opts.Hold), platform.GestureCallback{
		OnCompleted: func() { cell.Resolve(true) },
		OnCancelled: func() { cell.Reject(errCancelled) },
	})
	if !accepted {
		d.logger.Info("tap refused", zap.Int("x", req.X), zap.Int("y", req.Y))
		return false, nil
	}

	ok, err := cell.Wait(ctx, d.opts.Timeout)
	switch {
	case err == nil:
		return ok, nil
	case errors.Is(err, errCancelled):
		d.logger.Info("tap cancelled", zap.Int("x", req.X), zap.Int("y", req.Y))
		if d.opts.Strict {
			return false, ErrRejected
		}
		return false, nil
	case errors.Is(err, pending.ErrTimeout):
		d.logger.Warn("tap callback did not arrive",
			zap.Int("x", req.X), zap.Int("y", req.Y), zap.Duration("timeout", d.opts.Timeout))
		return false, nil
	default:
		return false, err
	}
}

// refused is the outcome of a tap that never reached the platform.
func (d *Dispatcher) refused() error {
	if d.opts.Strict {
		return ErrRejected
	}
	return nil
}
