package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brandlens/brandlens/internal/scan"
)

var (
	generateCount int
	generateJSON  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <intent>",
	Short: "Generate prompt variations for a search intent",
	Long: `Generate distinct natural-language phrasings of a search intent.

Useful for previewing how an intent would be expanded before wiring it
into a scan. Falls back to the intent itself if generation fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		intent := strings.TrimSpace(args[0])
		if intent == "" {
			return errors.New("intent is required")
		}

		driver, err := newDriver()
		if err != nil {
			return err
		}

		generator := &scan.Generator{
			Driver: driver,
			Model:  cfg.Judge.Model,
			Retry: scan.RetryPolicy{
				MaxAttempts: cfg.Scan.VariationAttempts,
				Backoff:     cfg.Scan.VariationBackoff,
			},
			Logger: logger,
		}

		variations := generator.GenerateVariations(cmd.Context(), intent, generateCount)

		if generateJSON {
			data, err := json.MarshalIndent(variations, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		for _, variation := range variations {
			fmt.Println(variation)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVar(&generateCount, "count", 3, "number of variations to generate")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "output raw JSON")
}
