// Package tools binds the travel services to the tools the crew calls.
package tools

import (
	"context"
	"time"

	"tabi/internal/agents"
	"tabi/internal/services"
	"tabi/internal/transit"
)

// Knowledge answers free-text questions from the uploaded documents.
type Knowledge interface {
	CityInformation(ctx context.Context, query string) (string, error)
}

type Deps struct {
	Places    services.PlacesServiceInterface
	Routes    services.RoutesServiceInterface
	Booking   services.BookingProvider
	Currency  services.CurrencyServiceInterface
	Knowledge Knowledge
	Transit   *transit.Graph
	// POIWorkers bounds concurrent category searches.
	POIWorkers int
	Now        func() time.Time
}

// NewToolset builds every tool of the crew.
func NewToolset(d Deps) agents.Toolset {
	if d.Transit == nil {
		d.Transit = transit.Japan()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.POIWorkers <= 0 {
		d.POIWorkers = 3
	}
	return agents.Toolset{
		CitiesBetween:     CitiesBetween(d.Places, d.Routes),
		TransitRoute:      TransitRoute(d.Transit),
		CityInformation:   CityInformation(d.Knowledge),
		PointsOfInterest:  PointsOfInterest(d.Places, d.POIWorkers),
		Flights:           Flights(d.Booking, d.Now),
		Hotels:            Hotels(d.Booking, d.Now),
		Calculator:        Calculator(),
		CurrencyConverter: CurrencyConverter(d.Currency),
	}
}
