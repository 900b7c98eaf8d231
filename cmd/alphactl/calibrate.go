package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
)

func newCalibrateCmd(c *cli) *cobra.Command {
	var (
		pf        periodFlags
		positionV []string
		strict    bool
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Fit calibration models from the period's reference benchmarks",
		Long: `Fits and stores one model per position. A position with too few
reference rows is reported and stays uncalibrated; --strict turns that into
a failure. Run batch afterwards to rescore the period with the new models.

Examples:
  alphactl calibrate --season 2024 --week 8
  alphactl calibrate --season 2024 --week 8 --position WR --position TE`,
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
			out := cmd.OutOrStdout()
			var insufficient []string
			for _, pos := range list {
				m, err := s.svc.FitCalibration(ctx, p, pos)
				if errors.Is(err, calibration.ErrInsufficientReferenceData) {
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("%s: insufficient reference data, left uncalibrated", pos)))
					insufficient = append(insufficient, string(pos))
					continue
				}
				if err != nil {
					return err
				}
				renderModel(out, m)
			}
			if strict && len(insufficient) > 0 {
				return fmt.Errorf("%w: %v", calibration.ErrInsufficientReferenceData, insufficient)
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringSliceVar(&positionV, "position", nil, "positions to fit (default all)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any position lacks reference data")
	return cmd
}
