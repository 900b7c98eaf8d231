package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
)

func newProfileCmd(*cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect scoring profiles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a profile against the schema; no file checks the embedded default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			prof, err := config.LoadProfile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, okStyle.Render("profile "+prof.Version+" is valid"))

			t := newTable("position", "pillars", "tiers", "calibration")
			for _, pos := range prof.PositionList() {
				pc, _ := prof.For(pos)
				names := make([]string, 0, len(pc.Pillars))
				for _, p := range pc.Pillars {
					names = append(names, fmt.Sprintf("%s %.2f", p.Name, pc.Weights[p.Name]))
				}
				tiers := make([]string, 0, len(pc.Tiers))
				for _, tr := range pc.Tiers {
					tiers = append(tiers, tr.Label)
				}
				t.Row(string(pos), strings.Join(names, ", "), strings.Join(tiers, " "), string(pc.Calibration.Strategy))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	})
	return cmd
}
