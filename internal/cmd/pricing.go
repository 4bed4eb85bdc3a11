package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandlens/brandlens/internal/store"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Manage the model price table",
}

var pricingLoadCmd = &cobra.Command{
	Use:   "load <file.yaml>",
	Short: "Load model prices from a YAML file",
	Long: `Load per-token model prices from a YAML file into the store.

The file is a list of entries:

  - model: gpt-4o
    input_per_token: 0.0000025
    output_per_token: 0.00001`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := store.LoadPriceFile(args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no price entries in %s", args[0])
		}

		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		if err := db.UpsertPrices(ctx, entries); err != nil {
			return err
		}

		logger.Info("prices loaded", zap.Int("entries", len(entries)))
		fmt.Printf("Loaded %d price entries\n", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pricingCmd)
	pricingCmd.AddCommand(pricingLoadCmd)
}
