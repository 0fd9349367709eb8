package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokit/focuser/internal/storage"
)

var (
	logSessionID string
	logLast      bool
	logFormat    string
	logOutput    string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect recorded sessions",
	Long:  `List recorded monitoring sessions and export their telemetry.`,
}

var logSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	RunE:  runLogSessions,
}

var logExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export samples from a session",
	Long: `Export the telemetry samples of a session in CSV or JSON format.

Examples:
  focusctl log export --last
  focusctl log export --id <session_id> --format json
  focusctl log export --id <session_id> -o samples.csv`,
	RunE: runLogExport,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logSessionsCmd)
	logCmd.AddCommand(logExportCmd)

	logExportCmd.Flags().StringVar(&logSessionID, "id", "", "Session ID to export")
	logExportCmd.Flags().BoolVar(&logLast, "last", false, "Export the last session")
	logExportCmd.Flags().StringVar(&logFormat, "format", "csv", "Export format (csv, json)")
	logExportCmd.Flags().StringVarP(&logOutput, "output", "o", "", "Output file (default: stdout)")
}

func runLogSessions(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := storage.NewSessionRepository(db).List(50)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded")
		return nil
	}

	samples := storage.NewSampleRepository(db)
	for _, s := range sessions {
		n, _ := samples.Count(s.SessionID)
		end := "active"
		if s.EndedAt != nil {
			end = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%s  %s  %s  %d samples  (%s)\n",
			s.SessionID, s.StartedAt.Format("2006-01-02 15:04:05"), s.DeviceName, n, end)
	}

	return nil
}

func runLogExport(cmd *cobra.Command, args []string) error {
	if logSessionID == "" && !logLast {
		return fmt.Errorf("specify --id or --last")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sessionID := logSessionID
	if logLast {
		last, err := storage.NewSessionRepository(db).GetLast()
		if err != nil {
			return fmt.Errorf("failed to get last session: %w", err)
		}
		if last == nil {
			return fmt.Errorf("no sessions found")
		}
		sessionID = last.SessionID
	}

	samples, err := storage.NewSampleRepository(db).GetBySession(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get samples: %w", err)
	}

	out := os.Stdout
	if logOutput != "" {
		f, err := os.Create(logOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch logFormat {
	case "csv":
		fmt.Fprintln(out, "ts_ms,x,y,z")
		for _, s := range samples {
			fmt.Fprintf(out, "%d,%g,%g,%g\n", s.TsMs, s.X, s.Y, s.Z)
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(samples); err != nil {
			return fmt.Errorf("failed to encode samples: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (csv, json)", logFormat)
	}

	return nil
}
