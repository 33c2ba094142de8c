package controllers_fx

import (
	"go.uber.org/fx"

	"tabi/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewPlanController),
	fx.Provide(controllers.NewDocumentController),
	fx.Provide(controllers.NewUsageController),
	fx.Provide(controllers.NewDevToolController),
	fx.Provide(controllers.NewHealthController),
)
