package bridge

import (
	"fmt"
	"math"

	"github.com/mj1618/device-bridge/internal/capture"
	"github.com/mj1618/device-bridge/internal/config"
	"github.com/mj1618/device-bridge/internal/gesture"
	"github.com/mj1618/device-bridge/internal/keepalive"
	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/overlay"
	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

// FromConfig builds a Bridge and all of its collaborators from cfg.
func FromConfig(cfg *config.Config, ref *platform.Ref, logger *zap.Logger) (*Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	triggers, err := cfg.Tree.Triggers()
	if err != nil {
		return nil, fmt.Errorf("tree.actionable_flags: %w", err)
	}

	labels, err := cfg.Capture.LabelMode()
	if err != nil {
		return nil, fmt.Errorf("capture.labels: %w", err)
	}

	builder := model.NewTreeSnapshotBuilder(model.BuildOptions{
		Filter:   model.NewElementFilter(triggers),
		MaxDepth: cfg.Tree.MaxDepth,
		MaxNodes: cfg.Tree.MaxNodes,
	})
	capturer := capture.NewCapturer(capture.Options{
		Timeout:     cfg.Capture.Timeout,
		CacheDir:    cfg.Capture.CacheDir,
		Timestamped: cfg.Capture.Timestamped,
		Scale:       cfg.Capture.Scale,
		Logger:      logger,
	})
	snapshots := capture.NewService(builder, capturer, cfg.Capture.Annotate, labels, logger)

	var ov *overlay.Overlay
	var shower gesture.TapShower
	if cfg.Overlay.Enabled {
		ov = overlay.New(overlay.Options{
			SizePx:  int(math.Round(float64(cfg.Overlay.SizeDP) * cfg.Overlay.Density)),
			Appear:  cfg.Overlay.Appear,
			Dismiss: cfg.Overlay.Dismiss,
			Ceiling: cfg.Overlay.Ceiling,
			Logger:  logger,
		})
		shower = ov
	}
	gestures := gesture.NewDispatcher(gesture.Options{
		Hold:          cfg.Gesture.Hold,
		Timeout:       cfg.Gesture.Timeout,
		RatePerSecond: cfg.Gesture.RatePerSecond,
		Strict:        cfg.Gesture.Strict,
		Logger:        logger,
	}, shower)

	return New(Options{
		Ref:       ref,
		Snapshots: snapshots,
		Gestures:  gestures,
		Overlay:   ov,
		KeepAlive: keepalive.New(keepalive.Options{
			DefaultStatus:     cfg.KeepAlive.DefaultStatus,
			HeartbeatInterval: cfg.KeepAlive.HeartbeatInterval,
			Logger:            logger,
		}),
		MaxPending: cfg.Bridge.MaxPending,
		Logger:     logger,
	}), nil
}
