package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tabi/internal/repositories"
	"tabi/internal/services"
	"tabi/pkg/cache"
	"tabi/pkg/middleware"
)

var Module = fx.Provide(
	provideAccountService,
	provideAccountRepo,
	provideRevocationChecker,
)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideAccountService(accountRepo repositories.AccountRepository, denylist cache.Cache) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, denylist)
}

func provideRevocationChecker(s services.AccountServiceInterface) middleware.RevocationChecker {
	return s
}
