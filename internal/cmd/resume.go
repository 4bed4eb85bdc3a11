package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resumeAccount string
	resumeDrive   bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Find and resume interrupted scan runs",
	Long: `List an account's runs that were interrupted with work still pending.

Runs whose items all finished are healed to completed. Pass --drive to
process the interrupted runs to completion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if resumeAccount == "" {
			return fmt.Errorf("--account is required")
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

		runs, err := orchestrator.Resume(ctx, resumeAccount)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No interrupted runs")
			return nil
		}

		for _, run := range runs {
			if !resumeDrive {
				fmt.Printf("Run %s is resumable: brandlens advance %s\n", run.ID, run.ID)
				continue
			}
			if _, err := orchestrator.Drive(ctx, run.ID, cfg.Scan.BatchSize); err != nil {
				return fmt.Errorf("drive run %s: %w", run.ID, err)
			}
			fmt.Printf("Run %s completed\n", run.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().StringVar(&resumeAccount, "account", "", "account ID to resume runs for")
	resumeCmd.Flags().BoolVar(&resumeDrive, "drive", false, "process resumable runs to completion")
}
