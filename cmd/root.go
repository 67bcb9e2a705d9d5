// Package cmd defines and implements the CLI commands for the stockwatch executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stockwatch",
		Short: "A price and stock watcher for retail products.",
		Long: `stockwatch polls a retailer's commerce API for the products on its
watch-list, pushes price and availability notifications to a relay, and
accepts watch-list changes over the relay's control stream.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; environment and defaults apply otherwise)")

	cmd.AddCommand(newWatchCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
