package cmd

import (
	"context"

	"github.com/mj1618/device-bridge/internal/output"
	"github.com/mj1618/device-bridge/internal/platform"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a device is attached",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addWaitFlag(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		res := output.StatusResult{
			Backend:  appConfig.Backend.Name,
			Active:   s.bridge.IsServiceActive(),
			Backends: platform.Backends(),
		}
		if dev := s.ref.Load(); dev != nil {
			res.Device = dev.Name()
		}
		res.KeepAlive, res.Status = s.bridge.KeepAliveStatus()
		return output.Print(res)
	})
}
