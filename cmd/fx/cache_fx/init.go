package cache_fx

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"tabi/internal/config"
	"tabi/pkg/cache"
)

var Module = fx.Provide(provideCache)

const sweepEvery = 10 * time.Minute

// provideCache uses redis when REDIS_ADDR is set and reachable, the in-process
// cache otherwise.
func provideCache(lc fx.Lifecycle, cfg config.Config) cache.Cache {
	if cfg.RedisAddr != "" {
		r := cache.NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := r.Ping(ctx)
		if err == nil {
			lc.Append(fx.Hook{OnStop: func(context.Context) error { return r.Close() }})
			log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
			return r
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, using in-memory cache")
		_ = r.Close()
	}

	m := cache.NewMemory()
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				t := time.NewTicker(sweepEvery)
				defer t.Stop()
				for {
					select {
					case <-t.C:
						if n := m.Sweep(); n > 0 {
							log.Debug().Int("expired", n).Msg("cache sweep")
						}
					case <-stop:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			return nil
		},
	})
	return m
}
