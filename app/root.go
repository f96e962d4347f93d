// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise/internal/config"
)

var (
	configPath string // Path to the configuration directory
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "shelfwise",
		Short: "Shelfwise is a role-gated library management backend",
		Long: `Shelfwise is a REST backend for managing a library: books, authors,
members, borrowings and purchases, with role-based access control
provisioned from a permission catalog.`,
		Args: cobra.OnlyValidArgs,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Path to the configuration directory")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
