package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/device-bridge/internal/bridge"
	"github.com/mj1618/device-bridge/internal/config"
	"github.com/mj1618/device-bridge/internal/observability"
	"github.com/mj1618/device-bridge/internal/output"
	"github.com/mj1618/device-bridge/internal/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Backends register themselves by name.
	_ "github.com/mj1618/device-bridge/internal/platform/adb"
	_ "github.com/mj1618/device-bridge/internal/platform/fake"
)

// session is a running backend plus the bridge built on top of it.
type session struct {
	ref    *platform.Ref
	bridge *bridge.Bridge
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// startSession starts the configured backend and builds a bridge over it.
// Close must be called to stop both.
func startSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*session, error) {
	backend, err := platform.NewBackend(cfg.Backend.Name, platform.Options{
		Serial:       cfg.Backend.Serial,
		ADBPath:      cfg.Backend.ADBPath,
		PollInterval: cfg.Backend.PollInterval,
		Density:      cfg.Overlay.Density,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	s := &session{ref: &platform.Ref{}}
	s.bridge, err = bridge.FromConfig(cfg, s.ref, logger)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := backend.Run(runCtx, s.ref); err != nil {
			logger.Error("backend stopped", zap.String("backend", cfg.Backend.Name), zap.Error(err))
		}
	}()
	return s, nil
}

// waitForDevice blocks until a device is attached, ctx is done or timeout
// elapses. It reports whether a device is attached.
func (s *session) waitForDevice(ctx context.Context, timeout time.Duration) bool {
	if s.ref.Active() {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return s.ref.Active()
		case <-ticker.C:
			if s.ref.Active() {
				return true
			}
		}
	}
}

// Close stops the bridge and then the backend.
func (s *session) Close() {
	s.bridge.Close()
	s.cancel()
	s.wg.Wait()
}

// withSession runs fn against a fresh session once a device is attached
// or the --wait period has passed. Commands still run without a device
// so their NO_SERVICE result is reported.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	logger := observability.GetLogger()
	s, err := startSession(cmd.Context(), appConfig, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	wait, _ := cmd.Flags().GetDuration("wait")
	if !s.waitForDevice(cmd.Context(), wait) {
		logger.Warn("no device attached", zap.Duration("waited", wait))
	}
	return fn(cmd.Context(), s)
}

// addWaitFlag adds the --wait flag used by the one-shot commands.
func addWaitFlag(cmd *cobra.Command) {
	cmd.Flags().Duration("wait", 5*time.Second, "How long to wait for a device to attach")
}

// reportError prints err as a coded result and returns it for the exit status.
func reportError(err error) error {
	res := output.ErrorResult{Code: string(bridge.KindOf(err)), Message: err.Error()}
	var be *bridge.Error
	if errors.As(err, &be) {
		res.Message = be.Message
	}
	if perr := output.Print(res); perr != nil {
		return fmt.Errorf("%w (printing result: %v)", err, perr)
	}
	return err
}
