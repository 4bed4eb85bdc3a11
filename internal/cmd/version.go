package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandlens/brandlens/internal/version"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()

		if extended {
			fmt.Printf("%s %s\n", info.Name, info.Version)
			fmt.Printf("Commit: %s\n", info.Commit)
			fmt.Printf("Built: %s\n", info.BuildDate)
			fmt.Printf("Go: %s\n", info.GoVersion)
			fmt.Printf("Platform: %s\n", info.Platform)
		} else {
			fmt.Printf("%s %s\n", info.Name, info.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
