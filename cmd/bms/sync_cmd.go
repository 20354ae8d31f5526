package main

import (
	"github.com/spf13/cobra"
)

func newSyncStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-status",
		Short: "Recompute every flat's status from its active ownership and tenancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			changed, err := a.status.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(map[string]int{"changed": changed})
		},
	}
}
