package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokit/focuser"
)

var scanTimeout time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for focus controllers",
	Long:  `Scan for nearby controllers advertising the focuser service and list them.`,
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Second, "Scan duration")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("Scanning for focus controllers...")

	devices, err := focuser.Scan(context.Background(), scanTimeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No controllers found")
		fmt.Println()
		fmt.Println("Tips:")
		fmt.Println("  - Ensure the controller is powered on")
		fmt.Println("  - Check that no other handset is holding the connection")
		fmt.Println("  - Check that Bluetooth is enabled")
		return nil
	}

	fmt.Printf("Found %d controller(s):\n", len(devices))
	for _, d := range devices {
		fmt.Printf("  - %s (%s, RSSI: %d)\n", d.Name, d.ID, d.RSSI)
	}

	return nil
}
