package main

import (
	"bms/internal/common"
	"bms/internal/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "bms",
		Short:         "Building management service: occupancy, parking and bulk owner import",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			common.InitLogger(cfg.Log.AppName, cfg.Log.Level)
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.toml", "Path to the TOML config file (optional)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newSyncStatusCmd(opts),
		newImportCmd(opts),
		newParkingCmd(opts),
	)
	return cmd
}
