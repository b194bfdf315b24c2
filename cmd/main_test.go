package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/onbscore/internal/adapters/repository"
	app "github.com/okian/onbscore/internal/app"
	"github.com/okian/onbscore/internal/config"
	"github.com/okian/onbscore/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestBuildStore(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("Then the memory store is used", func() {
			store, err := buildStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			_, ok := store.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(store.Close(), convey.ShouldBeNil)
		})

		convey.Convey("When the redis backend is selected", func() {
			mr, err := miniredis.Run()
			convey.So(err, convey.ShouldBeNil)
			defer mr.Close()

			cfg.SessionBackend = config.BackendRedis
			cfg.RedisAddr = mr.Addr()

			convey.Convey("Then a reachable server yields a redis store", func() {
				store, err := buildStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.RedisStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})

			convey.Convey("Then an unreachable server is an error", func() {
				mr.Close()
				_, err := buildStore(ctx, cfg)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewHTTPServer(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		cfg := config.New()
		svc := app.New()
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		srv := newHTTPServer(cfg, svc)

		convey.Convey("Then the server listens on the configured address", func() {
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})

		convey.Convey("Then the API routes are mounted", func() {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

			rec = httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/x/buckets", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}
