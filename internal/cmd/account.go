package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/brandlens/brandlens/internal/brand"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage scan accounts",
}

var accountLoadCmd = &cobra.Command{
	Use:   "load <file.yaml>",
	Short: "Create or update an account from a YAML file",
	Long: `Create or update an account from a YAML file.

The file carries the account's brand profile, plan limits, and model list:

  id: acct-1
  profile:
    company_name: Acme Analytics
    industry: business intelligence
    keywords: [dashboards, reporting]
    competitors: [Rival, Contender]
  plan:
    monthly_credit_limit: 10.0
    hourly_run_limit: 5
    competitor_analysis: true
  models: [gpt-4o, gpt-4o-mini]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read account file: %w", err)
		}

		var account brand.Account
		if err := yaml.Unmarshal(data, &account); err != nil {
			return fmt.Errorf("parse account file %s: %w", args[0], err)
		}
		if account.ID == "" {
			return fmt.Errorf("account id is required")
		}
		if account.Profile.CompanyName == "" {
			return fmt.Errorf("profile company_name is required")
		}

		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		if err := db.UpsertAccount(ctx, &account); err != nil {
			return err
		}

		logger.Info("account saved", zap.String("account_id", account.ID))
		fmt.Printf("Account %s saved\n", account.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountLoadCmd)
}
