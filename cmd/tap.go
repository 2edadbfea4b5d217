package cmd

import (
	"context"
	"fmt"

	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/output"
	"github.com/mj1618/device-bridge/internal/platform"
	"github.com/spf13/cobra"
)

var tapCmd = &cobra.Command{
	Use:   "tap [x,y]",
	Short: "Tap the screen at a coordinate or on an element",
	Long: `Tap the screen at (x, y) in screen pixels. The point is given either as a
single "x,y" argument, with --x and --y, or with --id to tap the centre of an
element from a fresh capture.

Examples:
  device-bridge tap 540,1100
  device-bridge tap --x 540 --y 1100
  device-bridge tap --id 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTap,
}

func init() {
	rootCmd.AddCommand(tapCmd)
	tapCmd.Flags().Int("x", 0, "Horizontal screen coordinate")
	tapCmd.Flags().Int("y", 0, "Vertical screen coordinate")
	tapCmd.Flags().Int("id", 0, "Tap the centre of this element from a fresh capture")
	addWaitFlag(tapCmd)
}

// tapPoint resolves the target from the positional argument or the flags.
func tapPoint(cmd *cobra.Command, args []string) (platform.Point, error) {
	if len(args) == 1 {
		if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
			return platform.Point{}, fmt.Errorf("give the point either as x,y or with --x/--y, not both")
		}
		return platform.ParsePoint(args[0])
	}
	if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
		return platform.Point{}, fmt.Errorf("missing coordinates: pass x,y, both --x and --y, or --id")
	}
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	return platform.Point{X: x, Y: y}, nil
}

// elementPoint captures the screen and returns the centre of element id.
func elementPoint(ctx context.Context, s *session, id int) (platform.Point, error) {
	snap, err := s.bridge.CaptureState(ctx)
	if err != nil {
		return platform.Point{}, err
	}
	el := model.FindByID(snap.Elements, id)
	if el == nil {
		return platform.Point{}, fmt.Errorf("element %d not found (capture has %d elements)", id, len(snap.Elements))
	}
	x, y := el.Center()
	return platform.Point{X: x, Y: y}, nil
}

func runTap(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetInt("id")
	byID := cmd.Flags().Changed("id")

	var p platform.Point
	if !byID {
		var err error
		if p, err = tapPoint(cmd, args); err != nil {
			return err
		}
	} else if len(args) > 0 || cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
		return fmt.Errorf("--id cannot be combined with coordinates")
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		if byID {
			var err error
			if p, err = elementPoint(ctx, s, id); err != nil {
				return reportError(err)
			}
		}
		ok, err := s.bridge.PerformAction(ctx, p.X, p.Y)
		if err != nil {
			return reportError(err)
		}
		return output.Print(output.ActionResult{X: p.X, Y: p.Y, Completed: ok})
	})
}
