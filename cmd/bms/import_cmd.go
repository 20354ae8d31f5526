package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"bms/internal/importer"

	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		file          string
		startDate     string
		vacateMissing bool
		dryRun        bool
		onConflict    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import flat owners from \"flat, owner, phone\" lines",
		Long: "Reads one \"flat, owner name, phone\" row per line (comma or tab separated) " +
			"from --file, or from stdin when --file is \"-\", and reconciles owners, " +
			"ownerships and flat statuses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(file)
			if err != nil {
				return err
			}

			req := importer.Request{
				Data:          string(data),
				VacateMissing: vacateMissing,
				DryRun:        dryRun,
				OnConflict:    onConflict,
			}
			if startDate != "" {
				start, err := time.Parse(time.DateOnly, startDate)
				if err != nil {
					return fmt.Errorf("invalid --start-date: %w", err)
				}
				req.StartDate = &start
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.importer.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(result)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Input file, or - for stdin (required)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Ownership start date, YYYY-MM-DD (default today in the import time zone)")
	cmd.Flags().BoolVar(&vacateMissing, "vacate-missing", false, "End ownerships of flats not listed in the input")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the changes without writing them")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "", "Policy for rows naming the same flat: last_wins, skip_row or abort (default from config)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}
