package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokit/focuser"
	"github.com/astrokit/focuser/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded sessions and nearby controllers",
	Long:  `Display session database statistics and scan for controllers in range.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("focusctl Status")
	fmt.Println("===============")
	fmt.Println()

	db, err := openDB()
	if err == nil {
		defer db.Close()
		fmt.Printf("Database: %s\n", db.Path())

		sessions := storage.NewSessionRepository(db)
		if last, err := sessions.GetLast(); err == nil && last != nil {
			fmt.Printf("Last session: %s (%s)\n", last.StartedAt.Format(time.RFC3339), last.DeviceName)
		}
		if all, err := sessions.List(10000); err == nil {
			fmt.Printf("Total sessions: %d\n", len(all))
		}
	} else {
		fmt.Printf("Database unavailable: %v\n", err)
	}

	fmt.Println()

	devices, err := focuser.Scan(context.Background(), 5*time.Second)
	if err != nil {
		fmt.Printf("Scan error: %v\n", err)
		return nil
	}

	if len(devices) == 0 {
		fmt.Println("No controllers found")
	} else {
		fmt.Printf("Found %d controller(s):\n", len(devices))
		for _, d := range devices {
			fmt.Printf("  - %s (%s, RSSI: %d)\n", d.Name, d.ID, d.RSSI)
		}
	}

	return nil
}
