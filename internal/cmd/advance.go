package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var advanceBatchSize int

var advanceCmd = &cobra.Command{
	Use:   "advance <run-id>",
	Short: "Process the next batch of a scan run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]

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

		batchSize := advanceBatchSize
		if batchSize <= 0 {
			batchSize = cfg.Scan.BatchSize
		}

		result, err := orchestrator.Advance(ctx, runID, batchSize)
		if err != nil {
			return err
		}

		logger.Info("batch processed",
			zap.String("run_id", runID),
			zap.Int("processed", result.Processed),
			zap.Int("remaining", result.Remaining),
			zap.Float64("cost", result.Cost))

		if result.Completed {
			fmt.Printf("Run %s completed\n", runID)
			return nil
		}
		fmt.Printf("Processed %d items, %d remaining\n", result.Processed, result.Remaining)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(advanceCmd)
	advanceCmd.Flags().IntVar(&advanceBatchSize, "batch-size", 0, "items to process (default from config)")
}
