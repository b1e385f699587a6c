package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kc-server",
	Short: "KarmaCommunity task API server",
	Long: `KC server is the REST backend for the KarmaCommunity assistance
platform. It serves the task management API: task lifecycle, hierarchical
assignment permissions, time-log gated completion, notification/post side
effects and a Redis side-cache over PostgreSQL.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command (used by tests).
func GetRootCmd() *cobra.Command {
	return rootCmd
}
