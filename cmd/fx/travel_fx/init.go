package travel_fx

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"tabi/internal/config"
	"tabi/internal/services"
	"tabi/pkg/cache"
)

var Module = fx.Provide(provideTravelServices)

type TravelServices struct {
	fx.Out

	Places   services.PlacesServiceInterface
	Routes   services.RoutesServiceInterface
	Booking  services.BookingProvider
	Currency services.CurrencyServiceInterface
}

// provideTravelServices builds one metered client per upstream so each keeps
// its own rate limit.
func provideTravelServices(cfg config.Config, c cache.Cache, usage services.UsageRecorder) (TravelServices, error) {
	google := services.NewMeteredClient(services.ClientConfig{
		Service: "google",
		RPS:     float64(cfg.GoogleRPS),
		Header:  http.Header{"X-Goog-Api-Key": []string{cfg.GoogleAPIKey}},
		Usage:   usage,
	})
	places, err := services.NewPlacesService(context.Background(), google, cfg.GoogleAPIKey, "", c, cfg.CacheTTL)
	if err != nil {
		return TravelServices{}, err
	}

	var amadeus services.AmadeusServiceInterface
	if cfg.BookingMode != services.BookingModeMock {
		amadeus = services.NewAmadeusService(services.NewMeteredClient(services.ClientConfig{
			Service: "amadeus",
			RPS:     float64(cfg.AmadeusRPS),
			Usage:   usage,
		}), cfg.AmadeusBaseURL, cfg.AmadeusKey, cfg.AmadeusSecret)
	}
	log.Info().Str("booking_mode", cfg.BookingMode).Msg("booking provider ready")

	currency := services.NewMeteredClient(services.ClientConfig{Service: "currency", RPS: 2, Usage: usage})

	return TravelServices{
		Places:   places,
		Routes:   services.NewRoutesService(google, ""),
		Booking:  services.NewBookingProvider(cfg.BookingMode, amadeus),
		Currency: services.NewCurrencyService(currency, cfg.CurrencyAPIURL, c, cfg.CacheTTL),
	}, nil
}
