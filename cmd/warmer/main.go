package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"staybook/internal/adapters/backend"
	"staybook/internal/adapters/observability"
	redisad "staybook/internal/adapters/redis"
	"staybook/internal/app"
	"staybook/internal/shared"
)

// warmer primes the Redis location cache: the full list and one name lookup
// per location, so the first searches after a deploy skip the backend.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("api", cfg.APIURL).
		Int("workers", cfg.WarmWorkers).
		Msg("warmer starting")

	api, err := backend.New(cfg.APIURL, cfg.APIRPS, cfg.APITimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("backend client init failed")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	ctrl := app.NewController(api, cache, cfg.UserID, cfg.CacheTTL)

	// force a fresh list instead of whatever is still cached
	if err := cache.Del(ctx, "locations:all"); err != nil {
		log.Warn().Err(err).Msg("drop cached location list failed")
	}
	locs, err := ctrl.Locations(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list locations failed")
	}

	workers := cfg.WarmWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	for _, l := range locs {
		l := l
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if _, _, err := ctrl.ResolveLocation(ctx, l.Name); err != nil {
				failed.Add(1)
				log.Warn().Int64("id", l.ID).Str("name", l.Name).Err(err).Msg("warm failed")
				return
			}
			log.Debug().Int64("id", l.ID).Str("name", l.Name).Msg("warm ok")
		}()
	}

	wg.Wait()
	log.Info().Int("locations", len(locs)).Int64("failed", failed.Load()).Msg("warm completed")
}
