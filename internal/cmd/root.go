// Package cmd wires the brandlens CLI.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/observability"
	"github.com/brandlens/brandlens/internal/version"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

// SetVersionInfo is called by main to inject build metadata.
func SetVersionInfo(ver, commit, buildDate string) {
	version.Set(ver, commit, buildDate)
}

var rootCmd = &cobra.Command{
	Use:   "brandlens",
	Short: "LLM brand visibility scanner",
	Long: `brandlens measures how often large language models mention a brand.

A scan expands an account's profile into test prompts, fans them out
across the account's models, and judges each response for mentions,
ranking, and sentiment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, err = observability.NewCLILogger(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./brandlens.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}
