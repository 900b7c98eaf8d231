package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newScoreCmd(c *cli) *cobra.Command {
	var (
		pf     periodFlags
		force  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "score PLAYER_ID",
		Short: "Score one player for a period",
		Long:  "Returns the cached score unless --force is set, in which case the score is recomputed and stored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			r, err := s.svc.ScoreOne(ctx, args[0], p, force)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			renderScore(cmd.OutOrStdout(), r)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "recompute and overwrite the cached score")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
