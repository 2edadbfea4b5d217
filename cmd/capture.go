package cmd

import (
	"context"

	"github.com/mj1618/device-bridge/internal/output"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the actionable UI elements and a screenshot",
	Long: `Read the device's UI tree, reduce it to its actionable elements and save a
screenshot. Prints {imagePath, uiTree}; element bounds are [x, y, width, height].`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Bool("annotate", false, "Also write a copy of the screenshot with element boxes and labels")
	captureCmd.Flags().String("labels", "ids", "Annotation labels: ids or coords")
	addWaitFlag(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		snap, err := s.bridge.CaptureState(ctx)
		if err != nil {
			return reportError(err)
		}
		return output.Print(snap)
	})
}
