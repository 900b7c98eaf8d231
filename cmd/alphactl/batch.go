package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBatchCmd(c *cli) *cobra.Command {
	var pf periodFlags
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Recompute every player of a period and replace its results",
		Long:  "Runs the period batch in the foreground. Players without rows in the period are skipped; per-player failures are counted and do not stop the batch.",
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

			start := time.Now()
			sum, err := s.svc.RunBatch(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: processed %d, skipped %d, errors %d in %s\n",
				p.Key(), sum.Processed, sum.Skipped, sum.Errors, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}
