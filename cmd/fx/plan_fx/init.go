package plan_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tabi/internal/config"
	"tabi/internal/repositories"
	"tabi/internal/services"
)

var Module = fx.Provide(
	providePlanRepo,
	providePlanService,
)

func providePlanRepo(db *gorm.DB) repositories.PlanRepository {
	return repositories.NewPlanRepository(db)
}

func providePlanService(
	planRepo repositories.PlanRepository,
	accountRepo repositories.AccountRepository,
	planner services.Planner,
	jobs services.JobSubmitter,
	mailer services.IMailService,
	cfg config.Config,
) services.PlanServiceInterface {
	return services.NewPlanService(planRepo, accountRepo, planner, jobs, mailer, cfg.BaseURL)
}
