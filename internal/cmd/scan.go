package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandlens/brandlens/internal/output"
	"github.com/brandlens/brandlens/internal/scan"
)

var (
	scanAccount     string
	scanCompetitors bool
	scanDrive       bool
	scanFormat      string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Start a brand visibility scan",
	Long: `Start a scan for an account's brand profile.

By default the scan is enqueued and returns immediately; drive it with
'brandlens advance <run-id>' or pass --drive to process it to completion
and print a report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanAccount == "" {
			return fmt.Errorf("--account is required")
		}

		format, err := output.ParseFormat(scanFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		driver, err := newDriver()
		if err != nil {
			return err
		}
		orchestrator := newOrchestrator(db, driver)

		result, err := orchestrator.StartScan(ctx, scanAccount, scanCompetitors)
		if err != nil {
			return err
		}

		logger.Info("scan started",
			zap.String("run_id", result.RunID),
			zap.Int("total_queued", result.TotalQueued))
		fmt.Printf("Run %s started with %d work items\n", result.RunID, result.TotalQueued)

		if !scanDrive {
			fmt.Printf("Advance it with: brandlens advance %s\n", result.RunID)
			return nil
		}

		if _, err := orchestrator.Drive(ctx, result.RunID, cfg.Scan.BatchSize); err != nil {
			return fmt.Errorf("drive run %s: %w", result.RunID, err)
		}

		report, err := scan.BuildReport(ctx, db, result.RunID)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatReport(report)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanAccount, "account", "", "account ID to scan for")
	scanCmd.Flags().BoolVar(&scanCompetitors, "competitors", false, "include competitor subjects")
	scanCmd.Flags().BoolVar(&scanDrive, "drive", false, "process the run to completion")
	scanCmd.Flags().StringVar(&scanFormat, "format", "table", "report format: table or json")
}
