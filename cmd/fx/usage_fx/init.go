package usage_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tabi/internal/repositories"
	"tabi/internal/services"
)

var Module = fx.Provide(
	provideUsageRepo,
	provideUsageService,
	provideUsageRecorder,
)

func provideUsageRepo(db *gorm.DB) repositories.UsageRepository {
	return repositories.NewUsageRepository(db)
}

func provideUsageService(repo repositories.UsageRepository) services.UsageServiceInterface {
	return services.NewUsageService(repo)
}

func provideUsageRecorder(s services.UsageServiceInterface) services.UsageRecorder {
	return s
}
