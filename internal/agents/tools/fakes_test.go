package tools

import (
	"context"
	"errors"
	"sync"

	"tabi/internal/models/response_models"
	"tabi/internal/services"
)

type fakePlaces struct {
	cities map[string]response_models.City
	nearby func(center response_models.LatLng) []response_models.City
	pois   map[string][]response_models.PointOfInterest

	mu         sync.Mutex
	categories []string
	queried    []string
}

func (f *fakePlaces) Geocode(_ context.Context, city string) (*response_models.City, error) {
	c, ok := f.cities[city]
	if !ok {
		return nil, &services.APIError{Service: "google", Endpoint: "places.searchText", Status: 404, Message: "City '" + city + "' not found"}
	}
	return &c, nil
}

func (f *fakePlaces) NearbyLocalities(_ context.Context, center response_models.LatLng, _ float64) []response_models.City {
	if f.nearby == nil {
		return nil
	}
	return f.nearby(center)
}

func (f *fakePlaces) SearchPOIs(_ context.Context, city, category string, _ response_models.LatLng, _ float64) ([]response_models.PointOfInterest, error) {
	f.mu.Lock()
	f.categories = append(f.categories, category)
	f.queried = append(f.queried, city)
	f.mu.Unlock()
	pois, ok := f.pois[category]
	if !ok {
		return nil, errors.New("quota exceeded")
	}
	return pois, nil
}

type fakeRoutes struct {
	route *response_models.Route
	err   error
}

func (f *fakeRoutes) ComputeRoute(context.Context, response_models.LatLng, response_models.LatLng) (*response_models.Route, error) {
	return f.route, f.err
}

type recordingBooking struct {
	hotel  services.HotelQuery
	flight services.FlightQuery
}

func (r *recordingBooking) FindHotels(_ context.Context, q services.HotelQuery) (*response_models.HotelSearch, error) {
	r.hotel = q
	return &response_models.HotelSearch{CityCode: q.CityCode, CheckIn: q.CheckIn, CheckOut: q.CheckOut, Source: "mock"}, nil
}

func (r *recordingBooking) FindFlights(_ context.Context, q services.FlightQuery) (*response_models.FlightSearch, error) {
	r.flight = q
	return &response_models.FlightSearch{Origin: q.Origin, Destination: q.Destination, DepartureDate: q.DepartureDate, Source: "mock"}, nil
}

type fixedRates map[string]float64

func (f fixedRates) Convert(_ context.Context, amount float64, from, to string) (*response_models.CurrencyConversion, error) {
	rate := f[from+to]
	return &response_models.CurrencyConversion{Amount: amount, From: from, To: to, Rate: rate, Converted: amount * rate}, nil
}

type cannedKnowledge string

func (k cannedKnowledge) CityInformation(context.Context, string) (string, error) {
	return string(k), nil
}
