// Package bridge is the controller-facing command surface. It validates
// arguments, checks that a device is attached, and runs provider commands
// one at a time on a single worker.
package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/device-bridge/internal/capture"
	"github.com/mj1618/device-bridge/internal/gesture"
	"github.com/mj1618/device-bridge/internal/keepalive"
	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/overlay"
	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

// Command names.
const (
	CmdIsServiceActive           = "isServiceActive"
	CmdCheckAccessibilityEnabled = "checkAccessibilityEnabled"
	CmdCaptureState              = "captureState"
	CmdPerformAction             = "performAction"
	CmdStartForegroundService    = "startForegroundService"
	CmdStopForegroundService     = "stopForegroundService"
	CmdUpdateForegroundStatus    = "updateForegroundStatus"
)

// Commands lists every command Handle accepts.
func Commands() []string {
	return []string{
		CmdIsServiceActive,
		CmdCheckAccessibilityEnabled,
		CmdCaptureState,
		CmdPerformAction,
		CmdStartForegroundService,
		CmdStopForegroundService,
		CmdUpdateForegroundStatus,
	}
}

// Options wires a Bridge to its collaborators. Overlay may be nil.
type Options struct {
	Ref        *platform.Ref
	Snapshots  *capture.Service
	Gestures   *gesture.Dispatcher
	Overlay    *overlay.Overlay
	KeepAlive  *keepalive.Service
	MaxPending int
	Logger     *zap.Logger
}

// Bridge executes controller commands.
type Bridge struct {
	ref       *platform.Ref
	snapshots *capture.Service
	gestures  *gesture.Dispatcher
	overlay   *overlay.Overlay
	keepAlive *keepalive.Service
	exec      *executor
	logger    *zap.Logger
}

// New starts the worker. Call Close to stop it.
func New(opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("bridge")
	if opts.KeepAlive == nil {
		opts.KeepAlive = keepalive.New(keepalive.Options{Logger: logger})
	}
	b := &Bridge{
		ref:       opts.Ref,
		snapshots: opts.Snapshots,
		gestures:  opts.Gestures,
		overlay:   opts.Overlay,
		keepAlive: opts.KeepAlive,
		exec:      newExecutor(opts.MaxPending, logger),
		logger:    logger,
	}
	if b.overlay != nil {
		b.ref.OnChange(func(prev, _ platform.Device) {
			if prev != nil {
				b.overlay.Clear()
			}
		})
	}
	return b
}

// Close stops the worker, destroys the overlay and stops the keep-alive.
func (b *Bridge) Close() {
	b.exec.close()
	if b.overlay != nil {
		b.overlay.Destroy()
	}
	b.keepAlive.Stop()
}

// Handle runs the named command. Failures are *Error values except when
// ctx ends first, which yields ctx.Err().
func (b *Bridge) Handle(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case CmdIsServiceActive, CmdCheckAccessibilityEnabled:
		return b.IsServiceActive(), nil
	case CmdCaptureState:
		return b.CaptureState(ctx)
	case CmdPerformAction:
		x, err := intArg(args, "x")
		if err != nil {
			return nil, err
		}
		y, err := intArg(args, "y")
		if err != nil {
			return nil, err
		}
		return b.PerformAction(ctx, x, y)
	case CmdStartForegroundService:
		return b.keepAlive.Start(), nil
	case CmdStopForegroundService:
		return b.keepAlive.Stop(), nil
	case CmdUpdateForegroundStatus:
		status, err := optionalString(args, "status")
		if err != nil {
			return nil, err
		}
		return b.keepAlive.UpdateStatus(status), nil
	default:
		return nil, newError(KindNotImplemented, "unknown command "+name, nil)
	}
}

// IsServiceActive reports whether a device is attached right now.
func (b *Bridge) IsServiceActive() bool {
	return b.ref.Active()
}

// KeepAliveStatus reports whether the keep-alive service runs and its
// current status text.
func (b *Bridge) KeepAliveStatus() (bool, string) {
	return b.keepAlive.Status()
}

// CaptureState snapshots the UI tree and screen of the attached device.
func (b *Bridge) CaptureState(ctx context.Context) (model.UiSnapshot, error) {
	v, err := b.run(ctx, CmdCaptureState, func(ctx context.Context, dev platform.Device) (any, error) {
		snap, err := b.snapshots.CaptureState(ctx, dev)
		if err != nil {
			return nil, captureError(err)
		}
		return snap, nil
	})
	if err != nil {
		return model.UiSnapshot{}, err
	}
	return v.(model.UiSnapshot), nil
}

// PerformAction taps at (x, y) on the attached device.
func (b *Bridge) PerformAction(ctx context.Context, x, y int) (bool, error) {
	v, err := b.run(ctx, CmdPerformAction, func(ctx context.Context, dev platform.Device) (any, error) {
		ok, err := b.gestures.Dispatch(ctx, dev, gesture.Request{X: x, Y: y})
		if err != nil {
			return nil, gestureError(err)
		}
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// run executes fn on the worker with the device attached at that moment.
func (b *Bridge) run(ctx context.Context, name string, fn func(context.Context, platform.Device) (any, error)) (any, error) {
	id := uuid.NewString()
	start := time.Now()
	log := b.logger.With(zap.String("command", name), zap.String("request", id))

	v, err := b.exec.submit(ctx, name, id, func(ctx context.Context) (any, error) {
		dev := b.ref.Load()
		if dev == nil {
			return nil, errNoService
		}
		return fn(ctx, dev)
	})

	switch {
	case err == nil:
		log.Debug("command done", zap.Duration("took", time.Since(start)))
	case isContextErr(err) || errors.Is(err, ErrClosed):
		log.Info("command abandoned", zap.Error(err))
	default:
		log.Warn("command failed", zap.String("kind", string(KindOf(err))), zap.Error(err))
	}
	return v, err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
