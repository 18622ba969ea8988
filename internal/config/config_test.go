package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/pable/go-tl-verge/internal/config"
)

func TestLoad(t *testing.T) {
	Convey("Given no file and no environment", t, func() {
		cfg, err := config.Load("")
		So(err, ShouldBeNil)

		Convey("Then defaults apply", func() {
			So(cfg.APIBaseURL, ShouldEqual, "https://ch.tetr.io/api/")
			So(cfg.OpponentWorkers, ShouldEqual, 4)
			So(cfg.CacheBackend, ShouldEqual, config.CacheSQLite)
			So(cfg.RequestTimeout, ShouldEqual, 30*time.Second)
		})
	})

	Convey("Given a YAML file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "verge.yaml")
		err := os.WriteFile(path, []byte(`
log_level: debug
opponent_workers: 8
request_timeout: 10s
cache_backend: redis
redis_url: redis://localhost:6379/2
allowed_origins:
  - https://example.org
`), 0o600)
		So(err, ShouldBeNil)

		cfg, err := config.Load(path)
		So(err, ShouldBeNil)

		Convey("Then file values override defaults", func() {
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.OpponentWorkers, ShouldEqual, 8)
			So(cfg.RequestTimeout, ShouldEqual, 10*time.Second)
			So(cfg.AllowedOrigins, ShouldResemble, []string{"https://example.org"})
			So(cfg.RequestsPerSecond, ShouldEqual, 5)
		})

		Convey("When the environment also sets a value", func() {
			_ = os.Setenv("VERGE_OPPONENT_WORKERS", "2")
			defer func() { _ = os.Unsetenv("VERGE_OPPONENT_WORKERS") }()
			cfg, err := config.Load(path)
			So(err, ShouldBeNil)

			Convey("Then the environment wins", func() {
				So(cfg.OpponentWorkers, ShouldEqual, 2)
				So(cfg.LogLevel, ShouldEqual, "debug")
			})
		})
	})

	Convey("Given invalid settings", t, func() {
		cases := [][2]string{
			{"VERGE_CACHE_BACKEND", "memcached"},
			{"VERGE_OPPONENT_WORKERS", "0"},
			{"VERGE_REQUESTS_PER_SECOND", "-1"},
		}
		for _, c := range cases {
			key, val := c[0], c[1]
			Convey("When "+key+"="+val, func() {
				_ = os.Setenv(key, val)
				defer func() { _ = os.Unsetenv(key) }()
				_, err := config.Load("")
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		}

		Convey("When redis is chosen without a url", func() {
			_ = os.Setenv("VERGE_CACHE_BACKEND", "redis")
			defer func() { _ = os.Unsetenv("VERGE_CACHE_BACKEND") }()
			_, err := config.Load("")
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		So(err, ShouldNotBeNil)
	})
}
