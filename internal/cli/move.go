package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokit/focuser"
)

var (
	moveMode  string
	moveCount int
)

var moveCmd = &cobra.Command{
	Use:   "move {cw|ccw}",
	Short: "Nudge the focuser",
	Long: `Move the focuser one or more discrete inputs in the given direction.

Examples:
  focusctl move cw
  focusctl move ccw --mode fine --count 3`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringVar(&moveMode, "mode", "medium", "Step mode (coarse, medium, fine)")
	moveCmd.Flags().IntVar(&moveCount, "count", 1, "Number of inputs to issue")
}

func parseMode(s string) (focuser.StepMode, error) {
	switch s {
	case "coarse":
		return focuser.ModeCoarse, nil
	case "medium":
		return focuser.ModeMedium, nil
	case "fine":
		return focuser.ModeFine, nil
	default:
		return 0, fmt.Errorf("unknown step mode %q (coarse, medium, fine)", s)
	}
}

func runMove(cmd *cobra.Command, args []string) error {
	var dir focuser.Direction
	switch args[0] {
	case "cw":
		dir = focuser.Clockwise
	case "ccw":
		dir = focuser.CounterClockwise
	default:
		return fmt.Errorf("unknown direction %q (cw, ccw)", args[0])
	}

	mode, err := parseMode(moveMode)
	if err != nil {
		return err
	}
	if moveCount < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	fmt.Println("Connecting...")
	f, err := connectReady(20 * time.Second)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Printf("Connected to %s (micro-steps: %d)\n", f.DeviceName(), f.MicroSteps())

	for i := 0; i < moveCount; i++ {
		f.Rotate(dir, mode)
		// Give the motor time to finish one input before the next.
		time.Sleep(150 * time.Millisecond)
	}

	fmt.Printf("Issued %d %s %s input(s)\n", moveCount, mode, dir)
	return nil
}
