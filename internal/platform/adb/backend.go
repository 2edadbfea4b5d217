package adb

import (
	"bytes"
	"context"
	"time"

	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

func init() {
	platform.Register("adb", func(opts platform.Options) (platform.Backend, error) {
		runner := ExecRunner{Path: opts.ADBPath, Serial: opts.Serial}
		return NewBackend(runner, opts), nil
	})
}

// Backend polls `adb get-state` and keeps the Ref attached while the
// device reports "device".
type Backend struct {
	runner   Runner
	device   *Device
	interval time.Duration
	logger   *zap.Logger
}

// NewBackend returns a Backend issuing commands through runner.
func NewBackend(runner Runner, opts platform.Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Serial
	if name == "" {
		name = "adb-default"
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Backend{
		runner:   runner,
		device:   NewDevice(name, runner, logger),
		interval: interval,
		logger:   logger.Named("adb-monitor"),
	}
}

// Run is the single writer of ref. It polls until ctx is done and
// detaches on the way out.
func (b *Backend) Run(ctx context.Context, ref *platform.Ref) error {
	defer ref.Detach()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		b.poll(ctx, ref)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (b *Backend) poll(ctx context.Context, ref *platform.Ref) {
	pctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	out, err := b.runner.Run(pctx, "get-state")
	online := err == nil && bytes.Equal(bytes.TrimSpace(out), []byte("device"))

	switch {
	case online && !ref.Active():
		b.logger.Info("device attached", zap.String("device", b.device.Name()))
		ref.Attach(b.device)
	case !online && ref.Active():
		b.logger.Info("device detached", zap.String("device", b.device.Name()), zap.Error(err))
		ref.Detach()
	}
}
