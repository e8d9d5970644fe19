package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rcontf/beta-serverless-api/cmd/gen"
)

var rootCmd = &cobra.Command{
	Use:   "rcon-api",
	Short: "HTTP bridge for executing RCON commands against game servers",
}

func init() {
	rootCmd.AddCommand(StartCmd)
	rootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
