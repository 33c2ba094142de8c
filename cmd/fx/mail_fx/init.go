package mail_fx

import (
	"go.uber.org/fx"

	"tabi/internal/config"
	"tabi/internal/services"
)

var Module = fx.Provide(provideMailService)

func provideMailService(cfg config.Config) services.IMailService {
	return services.NewSMTPMailService(services.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: "Tabi",
		AppName:  "Tabi",
	})
}
