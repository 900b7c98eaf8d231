package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/stores"
	service "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/app"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/profile"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

// cli carries state shared by every command.
type cli struct {
	cfg *config.Config
	log logger.Logger

	driver      string
	dsn         string
	profilePath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "alphactl",
		Short:         "Score, batch and calibrate player alpha scores",
		Long:          "Operates directly on the configured store. Configuration follows the server: defaults, then ALPHA_CONFIG, then ALPHA_ env vars, then flags.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if c.driver != "" {
				cfg.Store.Driver = c.driver
			}
			if c.dsn != "" {
				cfg.Store.DSN = c.dsn
			}
			if c.profilePath != "" {
				cfg.ProfilePath = c.profilePath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				_ = logger.SetLevelString("info")
			}
			c.cfg = cfg
			c.log = logger.Get().Named("alphactl")
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.driver, "driver", "", "store driver: memory, sqlite or postgres (overrides config)")
	f.StringVar(&c.dsn, "dsn", "", "store DSN (overrides config)")
	f.StringVar(&c.profilePath, "profile", "", "scoring profile YAML (overrides config)")

	root.AddCommand(
		newSeedCmd(c),
		newScoreCmd(c),
		newBatchCmd(c),
		newCalibrateCmd(c),
		newBenchmarksCmd(c),
		newLeaderboardCmd(c),
		newProfileCmd(c),
	)
	return root
}

// session is an opened store plus a service over it.
type session struct {
	stores  *stores.Stores
	svc     *service.Service
	profile *profile.Profile
}

func (s *session) Close() error { return s.stores.Close() }

// open loads the profile and opens the configured store. The service is not
// started; commands call its synchronous operations.
func (c *cli) open(ctx context.Context) (*session, error) {
	prof, err := config.LoadProfile(c.cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	st, err := stores.Open(ctx, c.cfg.Store, c.log)
	if err != nil {
		return nil, err
	}
	svc := service.New(st.Results, st.Stats, prof,
		service.WithLogger(c.log),
		service.WithBatchConcurrency(c.cfg.BatchConcurrency),
		service.WithMaxLeaderboardLimit(c.cfg.MaxLeaderboardLimit),
		service.WithBatchHistory(c.cfg.BatchHistory),
		service.WithRetry(service.RetryConfig{
			MaxAttempts:    c.cfg.Retry.MaxAttempts,
			InitialBackoff: c.cfg.Retry.InitialBackoff,
			MaxBackoff:     c.cfg.Retry.MaxBackoff,
		}),
	)
	return &session{stores: st, svc: svc, profile: prof}, nil
}

// periodFlags registers --season and --week on cmd.
type periodFlags struct {
	season int
	week   int
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.season, "season", 0, "season (required)")
	cmd.Flags().IntVar(&p.week, "week", 0, "through-week; 0 is the full season")
	_ = cmd.MarkFlagRequired("season")
}

func (p *periodFlags) period() (model.Period, error) {
	per := model.Period{Season: p.season, ThroughWeek: p.week}
	if err := per.Validate(); err != nil {
		return model.Period{}, err
	}
	return per, nil
}

// positions parses --position values; none means every profile position.
func positions(values []string, prof *profile.Profile) ([]model.Position, error) {
	if len(values) == 0 {
		return prof.PositionList(), nil
	}
	out := make([]model.Position, 0, len(values))
	for _, v := range values {
		pos, err := model.ParsePosition(v)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}
