package logger

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	Convey("Given a zap-backed logger", t, func() {
		core, logs := observer.New(zapcore.DebugLevel)
		l := New(zap.New(core))
		ctx := context.Background()

		Convey("When logging with fields", func() {
			l.Info(ctx, "scored", String("player", "p1"), Float64("score", 71.5))

			Convey("Then the entry carries them", func() {
				So(logs.Len(), ShouldEqual, 1)
				entry := logs.All()[0]
				So(entry.Message, ShouldEqual, "scored")
				So(entry.ContextMap()["player"], ShouldEqual, "p1")
				So(entry.ContextMap()["score"], ShouldEqual, 71.5)
			})
		})

		Convey("When the context carries scoped fields", func() {
			scoped := WithFields(ctx, String("batch_id", "b-1"))
			l.Named("worker").Error(scoped, "failed", Error(errors.New("boom")))

			Convey("Then scoped and call fields are both present", func() {
				entry := logs.All()[0]
				So(entry.LoggerName, ShouldEqual, "worker")
				So(entry.ContextMap()["batch_id"], ShouldEqual, "b-1")
				So(entry.ContextMap()["error"], ShouldEqual, "boom")
			})
		})
	})
}

func TestGlobalLogger(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("Get never returns nil", func() {
			So(Get(), ShouldNotBeNil)
		})

		Convey("Init installs a usable logger", func() {
			So(Init(), ShouldBeNil)
			So(Named("test"), ShouldNotBeNil)
			Get().Debug(context.Background(), "debug line")
		})

		Convey("SetLevelString accepts known levels", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			So(Level(), ShouldEqual, "debug")
			So(SetLevelString("WARNING"), ShouldBeNil)
			So(Level(), ShouldEqual, "warn")
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("SetLevelString rejects unknown levels", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
