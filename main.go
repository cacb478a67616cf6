package main

import (
	"os"

	"github.com/cottand/narrow/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "narrow [subcommand]",
	Short:        "narrow\n flow-sensitive type narrowing for PHP-like programs",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.AnalyzeCmd)
}
