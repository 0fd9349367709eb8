package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokit/focuser"
)

var sampleWatch bool

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Read accelerometer telemetry",
	Long: `Read one accelerometer sample from the controller, or stream samples
continuously with --watch until interrupted.`,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().BoolVarP(&sampleWatch, "watch", "w", false, "Stream samples until interrupted")
}

func runSample(cmd *cobra.Command, args []string) error {
	fmt.Println("Connecting...")
	f, err := connectReady(20 * time.Second)
	if err != nil {
		return err
	}
	defer f.Close()

	samples := make(chan focuser.Sample, 16)
	f.OnSample(func(s focuser.Sample) {
		select {
		case samples <- s:
		default:
		}
	})

	if !sampleWatch {
		f.RequestSample()
		select {
		case s := <-samples:
			fmt.Printf("x=%+.3f  y=%+.3f  z=%+.3f\n", s.X, s.Y, s.Z)
			return nil
		case <-time.After(5 * time.Second):
			return fmt.Errorf("no sample received")
		}
	}

	// Streaming until Ctrl-C. Lock the connection so the idle supervisor
	// does not tear it down mid-stream.
	f.SetLock(true)
	f.StartSampleStream()
	defer f.StopSampleStream()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	fmt.Println("Streaming samples, Ctrl-C to stop")
	for {
		select {
		case s := <-samples:
			fmt.Printf("x=%+.3f  y=%+.3f  z=%+.3f\n", s.X, s.Y, s.Z)
		case <-interrupt:
			fmt.Println()
			return nil
		}
	}
}
