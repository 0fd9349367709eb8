// Package cli implements the command-line interface for focusctl.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astrokit/focuser/internal/storage"
)

const version = "0.1.0"

var (
	// Global flags
	dbPath  string
	verbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "focusctl",
	Short: "Telescope focus controller remote",
	Long: `focusctl - A CLI remote for a BLE stepper-motor focus controller.

Scan for a controller, nudge the focuser in coarse, medium or fine steps,
stream accelerometer telemetry, and record monitoring sessions for later
inspection.`,
	Version: version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (default: ~/.focusctl/focusctl.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// openDB opens the session database from the flag or default path.
func openDB() (*storage.DB, error) {
	path := dbPath
	if path == "" {
		var err error
		path, err = storage.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return storage.Open(path)
}
