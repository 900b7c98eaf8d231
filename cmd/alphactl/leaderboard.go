package main

import (
	"github.com/spf13/cobra"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

func newLeaderboardCmd(c *cli) *cobra.Command {
	var (
		pf       periodFlags
		position string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show ranked results of a period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := pf.period()
			if err != nil {
				return err
			}
			var pos model.Position
			if position != "" {
				if pos, err = model.ParsePosition(position); err != nil {
					return err
				}
			}
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.svc.Leaderboard(ctx, p, pos, limit)
			if err != nil {
				return err
			}
			renderLeaderboard(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&position, "position", "", "restrict to one position")
	cmd.Flags().IntVar(&limit, "limit", 25, "entries to show")
	return cmd
}
