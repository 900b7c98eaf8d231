package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			convey.So(cfg.BatchConcurrency, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 1024)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then each broken field is rejected", func() {
			mutations := []func(*config.Config){
				func(c *config.Config) { c.QueueSize = 0 },
				func(c *config.Config) { c.WorkerCount = -1 },
				func(c *config.Config) { c.BatchConcurrency = 0 },
				func(c *config.Config) { c.DedupeTTL = -1 },
				func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
				func(c *config.Config) { c.BatchHistory = 0 },
				func(c *config.Config) { c.MaxBodyBytes = -1 },
				func(c *config.Config) { c.Retry.MaxAttempts = 0 },
				func(c *config.Config) { c.Retry.MaxBackoff = 0 },
				func(c *config.Config) { c.Store.Driver = config.DriverSQLite },
				func(c *config.Config) { c.Store.MinConns = 50 },
			}
			for _, mutate := range mutations {
				bad := config.New(context.Background())
				mutate(bad)
				convey.So(errors.Is(bad.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
