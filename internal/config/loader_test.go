package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/signalhouse/pqascore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
				convey.So(cfg.WindowDays, convey.ShouldEqual, 90)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PQA_ADDR", ":8080")
			_ = os.Setenv("PQA_QUEUE_SIZE", "10000")
			_ = os.Setenv("PQA_WORKER_COUNT", "8")
			_ = os.Setenv("PQA_WINDOW_DAYS", "30")
			_ = os.Setenv("PQA_TREND_DEAD_BAND", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.WindowDays, convey.ShouldEqual, 30)
				convey.So(cfg.TrendDeadBand, convey.ShouldEqual, 5.0)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()

			yaml := "addr: \":7070\"\nretry_limit: 5\nsweep_spec: \"@every 30m\"\n"
			path := filepath.Join(t.TempDir(), "config.yaml")
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("PQA_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.RetryLimit, convey.ShouldEqual, 5)
				convey.So(cfg.SweepSpec, convey.ShouldEqual, "@every 30m")
			})
		})

		convey.Convey("When env vars produce an invalid config", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PQA_ADDR", "")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When env vars break the weight contract", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PQA_WEIGHTS", "userCount=1.0")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PQA_CONFIG",
		"PQA_ADDR",
		"PQA_QUEUE_SIZE",
		"PQA_WORKER_COUNT",
		"PQA_WINDOW_DAYS",
		"PQA_TREND_DEAD_BAND",
		"PQA_WEIGHTS",
		"PQA_RETRY_LIMIT",
		"PQA_SWEEP_SPEC",
	} {
		_ = os.Unsetenv(key)
	}
}
