// Package cli defines the gateway command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var globalConfigPath string

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "AppForge gateway server",
	Long:  "gateway serves the AppForge chat loop and project file API over HTTP.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", "", "TOML config file path (optional)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
