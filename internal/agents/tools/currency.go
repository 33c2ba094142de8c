package tools

import (
	"context"

	"tabi/internal/agents"
	"tabi/internal/services"
)

type currencyArgs struct {
	Amount float64 `json:"amount" jsonschema:"description=Amount to convert"`
	From   string  `json:"from" jsonschema:"description=ISO 4217 source currency such as USD"`
	To     string  `json:"to" jsonschema:"description=ISO 4217 target currency such as JPY"`
}

// CurrencyConverter converts between currencies with daily rates.
func CurrencyConverter(fx services.CurrencyServiceInterface) agents.Tool {
	return agents.NewTool("currency_converter",
		"Convert an amount of money from one currency to another using current exchange rates.",
		func(ctx context.Context, args currencyArgs) (any, error) {
			return fx.Convert(ctx, args.Amount, args.From, args.To)
		})
}
