package app

import (
	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/daemon"
	"github.com/shelfwise/shelfwise/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Provision default roles, permissions and initial data",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}

		if err = logger.Init(cfg.Log); err != nil {
			panic(err)
		}
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		db := daemon.OpenDB(&cfg)

		if err := daemon.Migrate(db); err != nil {
			return err
		}

		return daemon.Seed(&cfg, db)
	},
}
