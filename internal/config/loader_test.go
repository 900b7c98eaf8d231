package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"ALPHA_CONFIG",
	"ALPHA_ADDR",
	"ALPHA_QUEUE_SIZE",
	"ALPHA_WORKER_COUNT",
	"ALPHA_DEDUPE_TTL",
	"ALPHA_STORE__DRIVER",
	"ALPHA_STORE__DSN",
	"ALPHA_RETRY__MAX_ATTEMPTS",
	"ALPHA_CORS_ORIGINS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alpha.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverMemory)
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ALPHA_ADDR", ":8080")
			_ = os.Setenv("ALPHA_QUEUE_SIZE", "128")
			_ = os.Setenv("ALPHA_WORKER_COUNT", "4")
			_ = os.Setenv("ALPHA_DEDUPE_TTL", "5m")
			_ = os.Setenv("ALPHA_STORE__DRIVER", "sqlite")
			_ = os.Setenv("ALPHA_STORE__DSN", "alpha.db")
			_ = os.Setenv("ALPHA_RETRY__MAX_ATTEMPTS", "9")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 128)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.DedupeTTL, convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.Store.DSN, convey.ShouldEqual, "alpha.db")
			convey.So(cfg.Retry.MaxAttempts, convey.ShouldEqual, 9)
			convey.So(cfg.Retry.InitialBackoff, convey.ShouldEqual, 50*time.Millisecond)
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
queue_size: 300
worker_count: 8
store:
  driver: postgres
  dsn: postgres://alpha@localhost/alpha
  max_conns: 20
`)
			_ = os.Setenv("ALPHA_CONFIG", path)
			_ = os.Setenv("ALPHA_WORKER_COUNT", "3")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverPostgres)
			convey.So(cfg.Store.MaxConns, convey.ShouldEqual, 20)
			convey.So(cfg.Store.MinConns, convey.ShouldEqual, 2)
		})

		convey.Convey("When the file is unreadable or malformed", func() {
			_ = os.Setenv("ALPHA_CONFIG", "/non/existent/alpha.yaml")
			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)

			_ = os.Setenv("ALPHA_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))
			cfg, err = config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loaded values fail validation", func() {
			_ = os.Setenv("ALPHA_ADDR", "")
			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(cfg, convey.ShouldBeNil)

			clearConfigEnvVars()
			_ = os.Setenv("ALPHA_STORE__DRIVER", "mongo")
			_, err = config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
