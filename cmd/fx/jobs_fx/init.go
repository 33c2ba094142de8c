package jobs_fx

import (
	"context"

	"go.uber.org/fx"

	"tabi/internal/config"
	"tabi/internal/jobs"
	"tabi/internal/services"
)

var Module = fx.Provide(
	provideRunner,
	provideSubmitter,
)

// provideRunner gives every job the LLM timeout plus headroom for the
// database writes that follow it.
func provideRunner(lc fx.Lifecycle, cfg config.Config) *jobs.Runner {
	r := jobs.NewRunner(cfg.PlanWorkers, cfg.LLMTimeout+cfg.LLMTimeout/5)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return r.Shutdown(ctx)
		},
	})
	return r
}

func provideSubmitter(r *jobs.Runner) services.JobSubmitter {
	return r
}
