package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tabi/internal/agents"
	"tabi/internal/services"
	"tabi/pkg/utils"
)

type hotelsArgs struct {
	CityCode string   `json:"city_code" jsonschema:"description=IATA city code such as TYO or OSA"`
	CheckIn  string   `json:"check_in" jsonschema:"description=Check-in date in YYYY-MM-DD format"`
	CheckOut string   `json:"check_out" jsonschema:"description=Check-out date in YYYY-MM-DD format"`
	Adults   int      `json:"adults,omitempty" jsonschema:"description=Number of adults (default 2)"`
	MaxPrice *float64 `json:"max_price,omitempty" jsonschema:"description=Maximum total price for the stay"`
	Currency string   `json:"currency,omitempty" jsonschema:"description=ISO currency code (default USD)"`
}

// Hotels searches hotel offers for a city and a stay.
func Hotels(booking services.BookingProvider, now func() time.Time) agents.Tool {
	return agents.NewTool("find_hotels",
		"Search available hotel offers in a city for check-in and check-out dates. "+
			"Prices include the whole stay for all guests.",
		func(ctx context.Context, args hotelsArgs) (any, error) {
			if strings.TrimSpace(args.CityCode) == "" {
				return nil, fmt.Errorf("%w: city_code is required", utils.ErrInvalidInput)
			}
			checkIn, err := utils.PadDate(args.CheckIn, now())
			if err != nil {
				return nil, err
			}
			checkOut, err := utils.PadDate(args.CheckOut, now())
			if err != nil {
				return nil, err
			}
			adults := args.Adults
			if adults <= 0 {
				adults = 2
			}
			q := services.HotelQuery{
				CityCode: args.CityCode,
				CheckIn:  checkIn,
				CheckOut: checkOut,
				Adults:   adults,
				Currency: args.Currency,
			}
			if args.MaxPrice != nil {
				q.MaxPrice = *args.MaxPrice
			}
			return booking.FindHotels(ctx, q)
		})
}

type flightsArgs struct {
	Origin        string   `json:"origin" jsonschema:"description=Origin airport or city IATA code"`
	Destination   string   `json:"destination" jsonschema:"description=Destination airport or city IATA code"`
	DepartureDate string   `json:"departure_date" jsonschema:"description=Departure date in YYYY-MM-DD format"`
	ReturnDate    string   `json:"return_date,omitempty" jsonschema:"description=Return date in YYYY-MM-DD format for a round trip"`
	Adults        int      `json:"adults,omitempty" jsonschema:"description=Number of adult passengers (default 1)"`
	TravelClass   string   `json:"travel_class,omitempty" jsonschema:"enum=ECONOMY,enum=PREMIUM_ECONOMY,enum=BUSINESS,enum=FIRST,description=Cabin class (default ECONOMY)"`
	NonStop       bool     `json:"non_stop,omitempty" jsonschema:"description=Direct flights only"`
	MaxResults    int      `json:"max_results,omitempty" jsonschema:"description=Maximum number of offers (default 10)"`
	MaxPrice      *float64 `json:"max_price,omitempty" jsonschema:"description=Maximum total price"`
	Currency      string   `json:"currency,omitempty" jsonschema:"description=ISO currency code (default USD)"`
}

// Flights searches flight offers between two airports.
func Flights(booking services.BookingProvider, now func() time.Time) agents.Tool {
	return agents.NewTool("find_flights",
		"Search flight offers between two airports for a departure date and an optional return date.",
		func(ctx context.Context, args flightsArgs) (any, error) {
			if strings.TrimSpace(args.Origin) == "" || strings.TrimSpace(args.Destination) == "" {
				return nil, fmt.Errorf("%w: origin and destination are required", utils.ErrInvalidInput)
			}
			departure, err := utils.PadDate(args.DepartureDate, now())
			if err != nil {
				return nil, err
			}
			var ret string
			if strings.TrimSpace(args.ReturnDate) != "" {
				if ret, err = utils.PadDate(args.ReturnDate, now()); err != nil {
					return nil, err
				}
			}
			q := services.FlightQuery{
				Origin:        args.Origin,
				Destination:   args.Destination,
				DepartureDate: departure,
				ReturnDate:    ret,
				Adults:        max(1, args.Adults),
				TravelClass:   args.TravelClass,
				NonStop:       args.NonStop,
				Currency:      args.Currency,
				Max:           args.MaxResults,
			}
			if args.MaxPrice != nil {
				q.MaxPrice = *args.MaxPrice
			}
			return booking.FindFlights(ctx, q)
		})
}
