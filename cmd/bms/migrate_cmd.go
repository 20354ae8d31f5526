package main

import (
	"fmt"

	"bms/internal/common"
	"bms/pkg/database/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(action func(r *migrations.Runner) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			runner, err := migrations.NewRunner(pool)
			if err != nil {
				return err
			}
			defer runner.Close()
			return action(runner)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: run(func(r *migrations.Runner) error {
				if err := r.Up(); err != nil {
					return err
				}
				common.Logger.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: run(func(r *migrations.Runner) error {
				if err := r.Down(); err != nil {
					return err
				}
				common.Logger.Info("rolled back one migration")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: run(func(r *migrations.Runner) error {
				version, dirty, err := r.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version %d (dirty: %t)\n", version, dirty)
				return nil
			}),
		},
	)
	return cmd
}
