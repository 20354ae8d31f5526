package main

import (
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create missing flats or parking spots",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "flats",
			Short: "Create every missing flat of the building as vacant",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(cmd.Context(), opts.cfg)
				if err != nil {
					return err
				}
				defer a.Close()

				created, err := a.flats.SeedBuilding(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(map[string]int{"created": created})
			},
		},
		&cobra.Command{
			Use:   "spots",
			Short: "Create one dedicated parking spot for every flat without one",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(cmd.Context(), opts.cfg)
				if err != nil {
					return err
				}
				defer a.Close()

				created, err := a.parking.SeedSpots(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(map[string]int{"created": created})
			},
		},
	)
	return cmd
}
