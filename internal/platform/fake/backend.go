package fake

import (
	"context"

	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

func init() {
	platform.Register("fake", func(opts platform.Options) (platform.Backend, error) {
		name := opts.Serial
		if name == "" {
			name = "fake-device"
		}
		return &Backend{Device: NewDevice(name), logger: opts.Logger}, nil
	})
}

// Backend attaches one in-memory device for as long as it runs.
type Backend struct {
	Device *Device
	logger *zap.Logger
}

// Run attaches the device immediately and detaches it when ctx is done.
func (b *Backend) Run(ctx context.Context, ref *platform.Ref) error {
	ref.Attach(b.Device)
	if b.logger != nil {
		b.logger.Info("fake device attached", zap.String("device", b.Device.Name()))
	}
	<-ctx.Done()
	ref.Detach()
	return nil
}
