package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/synthetic"
	"github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAlphactl(t *testing.T) {
	convey.Convey("Given a seeded sqlite store", t, func() {
		dir := t.TempDir()
		store := []string{"--driver", "sqlite", "--dsn", filepath.Join(dir, "alpha.db")}
		run := func(args ...string) (string, error) {
			return execute(append(args, store...)...)
		}

		out, err := run("seed", "--season", "2024", "--weeks", "10", "--teams", "12",
			"--benchmarks", "--benchmarks-week", "8", "--noise", "0")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, "84 players")
		convey.So(out, convey.ShouldContainSubstring, "benchmark rows for 2024-w08")

		convey.Convey("Calibrate fits positions with enough reference rows", func() {
			out, err := run("calibrate", "--season", "2024", "--week", "8")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "WR 2024-w08")
			convey.So(out, convey.ShouldContainSubstring, "QB: insufficient reference data")

			_, err = run("calibrate", "--season", "2024", "--week", "8", "--strict")
			convey.So(errors.Is(err, calibration.ErrInsufficientReferenceData), convey.ShouldBeTrue)
		})

		convey.Convey("Batch then leaderboard and score agree", func() {
			out, err := run("batch", "--season", "2024", "--week", "8")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "errors 0")

			out, err = run("leaderboard", "--season", "2024", "--week", "8", "--position", "WR", "--limit", "5")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "rank")
			convey.So(out, convey.ShouldContainSubstring, "WR")

			l := synthetic.Generate(synthetic.Config{Season: 2024, Weeks: 10, Teams: 12, Seed: 7})
			id := l.Players[0].PlayerID
			out, err = run("score", id, "--season", "2024", "--week", "8", "--json")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"player_id": "`+id+`"`)
		})

		convey.Convey("Benchmarks round trip through export and a glob import", func() {
			csv, err := run("benchmarks", "export", "--season", "2024", "--week", "8", "--position", "WR")
			convey.So(err, convey.ShouldBeNil)
			convey.So(csv, convey.ShouldStartWith, "player_id,")

			nested := filepath.Join(dir, "refs", "2024")
			convey.So(os.MkdirAll(nested, 0o750), convey.ShouldBeNil)
			convey.So(os.WriteFile(filepath.Join(nested, "wr.csv"), []byte(csv), 0o600), convey.ShouldBeNil)

			out, err := run("benchmarks", "import", "--season", "2024", "--week", "8",
				"--glob", filepath.Join(dir, "refs", "**", "*.csv"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "from 1 files into 2024-w08")

			_, err = run("benchmarks", "import", "--season", "2024", "--glob", filepath.Join(dir, "none", "*.csv"))
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Invalid input is rejected", func() {
			_, err := run("leaderboard", "--week", "8")
			convey.So(err, convey.ShouldNotBeNil)

			_, err = run("score", "p-1", "--season", "2024", "--week", "30")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("The embedded profile validates", t, func() {
		out, err := execute("profile", "validate")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, "is valid")
		convey.So(out, convey.ShouldContainSubstring, "regression")
	})
}
