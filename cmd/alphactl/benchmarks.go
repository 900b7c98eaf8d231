package main

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

func newBenchmarksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmarks",
		Short: "Import or export reference benchmark CSVs",
	}
	cmd.AddCommand(newBenchmarksImportCmd(c), newBenchmarksExportCmd(c))
	return cmd
}

func newBenchmarksImportCmd(c *cli) *cobra.Command {
	var (
		pf   periodFlags
		glob string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the period's benchmarks with every CSV matching --glob",
		Long: `Reads player_id,team,position,raw_value,adjusted_value,sample_size CSV files.
All matched files together replace the period's benchmark rows.

Examples:
  alphactl benchmarks import --season 2024 --week 8 --glob 'refs/2024/**/*.csv'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := pf.period()
			if err != nil {
				return err
			}
			files, err := doublestar.FilepathGlob(glob, doublestar.WithFilesOnly())
			if err != nil {
				return fmt.Errorf("glob %q: %w", glob, err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no files match %q", glob)
			}

			var rows []model.ReferenceBenchmarkRow
			for _, name := range files {
				got, err := readBenchmarkFile(name, p)
				if err != nil {
					return err
				}
				rows = append(rows, got...)
			}

			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			res, err := s.svc.ImportBenchmarks(ctx, p, rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows from %d files into %s\n", res.Imported, len(files), res.Period)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&glob, "glob", "", "file pattern; ** matches nested directories (required)")
	_ = cmd.MarkFlagRequired("glob")
	return cmd
}

func readBenchmarkFile(name string, p model.Period) ([]model.ReferenceBenchmarkRow, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := statsource.ReadBenchmarks(f, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rows, nil
}

func newBenchmarksExportCmd(c *cli) *cobra.Command {
	var (
		pf        periodFlags
		positionV []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the period's benchmarks as CSV to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := pf.period()
			if err != nil {
				return err
			}
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := positions(positionV, s.profile)
			if err != nil {
				return err
			}
			var rows []model.ReferenceBenchmarkRow
			for _, pos := range list {
				got, err := s.stores.Results.Benchmarks(ctx, p, pos)
				if err != nil {
					return err
				}
				rows = append(rows, got...)
			}
			return statsource.WriteBenchmarks(cmd.OutOrStdout(), rows)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringSliceVar(&positionV, "position", nil, "positions to export (default all)")
	return cmd
}
