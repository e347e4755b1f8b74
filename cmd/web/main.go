package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"staybook/internal/adapters/backend"
	server "staybook/internal/adapters/http_server"
	"staybook/internal/adapters/observability"
	redisad "staybook/internal/adapters/redis"
	"staybook/internal/app"
	"staybook/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// deps
	api, err := backend.New(cfg.APIURL, cfg.APIRPS, cfg.APITimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("backend client init failed")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(context.Background()); err != nil {
		// the cache is an optimization; run without it being reachable
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, continuing uncached")
	}
	ctrl := app.NewController(api, cache, cfg.UserID, cfg.CacheTTL)

	view, err := server.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("template parse failed")
	}

	// http
	srv := server.New(log.Logger, 15*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		C:        ctrl,
		Sessions: server.NewSessions([]byte(cfg.SessionSecret), cfg.SecureCookies),
		View:     view,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("api", cfg.APIURL).Int64("user_id", cfg.UserID).Msg("web listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("web stopped")
}
