package main

import (
	"github.com/spf13/cobra"
)

func newParkingCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parking",
		Short: "Parking maintenance",
	}

	var dryRun bool
	autoAssign := &cobra.Command{
		Use:   "auto-assign",
		Short: "Open an assignment on each occupied flat's spot from the occupancy start date",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.parking.AutoAssign(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return writeJSON(result)
		},
	}
	autoAssign.Flags().BoolVar(&dryRun, "dry-run", false, "Report the changes without writing them")

	cmd.AddCommand(autoAssign)
	return cmd
}
