package db_fx

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"tabi/internal/api/controllers"
	"tabi/internal/config"
	"tabi/internal/infra"
)

var Module = fx.Provide(
	provideDB,
	providePinger,
)

func provideDB(lc fx.Lifecycle, cfg config.Config) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			infra.ClosePostgresql(db)
			return nil
		},
	})
	return db, nil
}

func providePinger(db *gorm.DB) (controllers.Pinger, error) {
	return db.DB()
}
