package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tabi/internal/models/response_models"
	"tabi/pkg/utils"
)

const (
	BookingModeMock = "mock"
	BookingModeLive = "live"
	BookingModeAuto = "auto"

	sourceMock    = "mock"
	sourceAmadeus = "amadeus"

	maxHotelIDs = 20
)

type HotelQuery struct {
	CityCode string
	CheckIn  string
	CheckOut string
	Adults   int
	MaxPrice float64
	Currency string
}

type FlightQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	TravelClass   string
	NonStop       bool
	MaxPrice      float64
	Currency      string
	Max           int
}

// BookingProvider finds hotel and flight offers. Dates are expected to be
// already normalized with utils.PadDate.
type BookingProvider interface {
	FindHotels(ctx context.Context, q HotelQuery) (*response_models.HotelSearch, error)
	FindFlights(ctx context.Context, q FlightQuery) (*response_models.FlightSearch, error)
}

// NewBookingProvider picks the provider for BOOKING_MODE. amadeus may be nil in mock mode.
func NewBookingProvider(mode string, amadeus AmadeusServiceInterface) BookingProvider {
	mock := NewMockBooking(nil)
	if amadeus == nil {
		return mock
	}
	switch mode {
	case BookingModeLive:
		return NewLiveBooking(amadeus)
	case BookingModeAuto:
		return &FallbackBooking{primary: NewLiveBooking(amadeus), fallback: mock}
	}
	return mock
}

func (q *HotelQuery) normalize() {
	q.CityCode = strings.ToUpper(strings.TrimSpace(q.CityCode))
	if q.Adults < 1 {
		q.Adults = 1
	}
	if q.Currency == "" {
		q.Currency = "USD"
	}
}

func (q *FlightQuery) normalize() {
	q.Origin = strings.ToUpper(strings.TrimSpace(q.Origin))
	q.Destination = strings.ToUpper(strings.TrimSpace(q.Destination))
	if q.Adults < 1 {
		q.Adults = 1
	}
	if q.TravelClass == "" {
		q.TravelClass = "ECONOMY"
	}
	q.TravelClass = strings.ToUpper(q.TravelClass)
	if q.Currency == "" {
		q.Currency = "USD"
	}
	if q.Max <= 0 {
		q.Max = 10
	}
}

var mockHotels = []string{
	"Grand Plaza Hotel",
	"Ocean View Resort",
	"Grand Prince Hotel",
	"APA Station Front",
	"Days Inn",
	"Granva Luxe",
	"Sakura Breeze Hotel",
	"Shinjo Inn & Spa",
	"Mizuki Seaside Resort",
	"Kizuna Grand Lodge",
	"Yuki’s House Guesthouse",
	"Harmony Garden Residence",
	"Zenith Luxury Inn",
	"Kōen Harbor Hotel",
	"Tsukimi Moonview Ryokan",
	"Aoi Horizon Suites",
}

var mockAirlines = []string{
	"Aether",
	"Nova Air",
	"SkyHarbor Airlines",
	"Aurora Jetlines",
	"Horizon Connect",
	"Velvet Wings",
	"Pinnacle Air",
	"Echo Airways",
	"Saffron Airlines",
	"Celestial Air",
}

// MockBooking returns plausible random offers without calling any API.
type MockBooking struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockBooking uses rnd when given, otherwise a time seeded source.
func NewMockBooking(rnd *rand.Rand) *MockBooking {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &MockBooking{rnd: rnd}
}

// between returns a uniform integer in [lo, hi].
func (m *MockBooking) between(lo, hi int) int {
	return lo + m.rnd.IntN(hi-lo+1)
}

func (m *MockBooking) sample(names []string, k int) []string {
	idx := m.rnd.Perm(len(names))[:k]
	out := make([]string, k)
	for i, j := range idx {
		out[i] = names[j]
	}
	return out
}

func (m *MockBooking) FindHotels(_ context.Context, q HotelQuery) (*response_models.HotelSearch, error) {
	q.normalize()
	nights, err := utils.NightsBetween(q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	res := &response_models.HotelSearch{CityCode: q.CityCode, CheckIn: q.CheckIn, CheckOut: q.CheckOut, Source: sourceMock}
	for _, name := range m.sample(mockHotels, m.between(1, len(mockHotels)-1)) {
		perNight := float64(m.between(3300, 40000)) / 100
		if q.Adults > 1 {
			perNight += round2(perNight * float64(q.Adults-1) * 0.2)
		}
		total := round2(perNight * float64(nights) * 1.2)
		if q.MaxPrice > 0 && total > q.MaxPrice {
			continue
		}
		res.Hotels = append(res.Hotels, response_models.HotelOffer{
			Name:          name,
			CityCode:      q.CityCode,
			PricePerNight: round2(perNight),
			Total:         total,
			Currency:      q.Currency,
			Nights:        nights,
			Guests:        q.Adults,
		})
	}
	return res, nil
}

func (m *MockBooking) FindFlights(_ context.Context, q FlightQuery) (*response_models.FlightSearch, error) {
	q.normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	res := &response_models.FlightSearch{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate,
		ReturnDate:    q.ReturnDate,
		Source:        sourceMock,
	}
	kind := "one-way"
	if q.ReturnDate != "" {
		kind = "round-trip"
	}
	for i, airline := range m.sample(mockAirlines, m.between(1, 5)) {
		perPerson := float64(m.between(20000, 80000)) / 100
		if q.ReturnDate != "" {
			perPerson *= 2
		}
		total := round2(perPerson * float64(q.Adults))
		if q.MaxPrice > 0 && total > q.MaxPrice {
			continue
		}
		res.Flights = append(res.Flights, response_models.FlightOffer{
			ID:             fmt.Sprintf("MOCK-%d", i+1),
			Type:           kind,
			Airline:        airline,
			PricePerPerson: round2(perPerson),
			Total:          total,
			Currency:       q.Currency,
			TravelClass:    q.TravelClass,
			NonStop:        q.NonStop,
		})
	}
	return res, nil
}

// LiveBooking queries Amadeus self-service APIs.
type LiveBooking struct {
	amadeus AmadeusServiceInterface
}

func NewLiveBooking(amadeus AmadeusServiceInterface) *LiveBooking {
	return &LiveBooking{amadeus: amadeus}
}

func (l *LiveBooking) FindHotels(ctx context.Context, q HotelQuery) (*response_models.HotelSearch, error) {
	q.normalize()
	hotels, err := l.amadeus.ListHotels(ctx, q.CityCode, maxHotelIDs)
	if err != nil {
		return nil, err
	}
	res := &response_models.HotelSearch{CityCode: q.CityCode, CheckIn: q.CheckIn, CheckOut: q.CheckOut, Source: sourceAmadeus}
	if len(hotels) == 0 {
		return res, nil
	}
	ids := make([]string, len(hotels))
	for i, h := range hotels {
		ids[i] = h.HotelID
	}
	offers, err := l.amadeus.HotelOffers(ctx, ids, q)
	if err != nil {
		return nil, err
	}
	res.Hotels = offers
	return res, nil
}

func (l *LiveBooking) FindFlights(ctx context.Context, q FlightQuery) (*response_models.FlightSearch, error) {
	q.normalize()
	offers, err := l.amadeus.FlightOffers(ctx, q)
	if err != nil {
		return nil, err
	}
	return &response_models.FlightSearch{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate,
		ReturnDate:    q.ReturnDate,
		Source:        sourceAmadeus,
		Flights:       offers,
	}, nil
}

// FallbackBooking tries primary and answers from fallback when the upstream is
// throttled, out of quota or down. Bad requests are returned as is.
type FallbackBooking struct {
	primary  BookingProvider
	fallback BookingProvider
}

func shouldFallBack(err error) bool {
	return errors.Is(err, utils.ErrUpstreamRateLimited) ||
		errors.Is(err, utils.ErrUpstreamUnauthorized) ||
		errors.Is(err, utils.ErrUpstream)
}

func (f *FallbackBooking) FindHotels(ctx context.Context, q HotelQuery) (*response_models.HotelSearch, error) {
	res, err := f.primary.FindHotels(ctx, q)
	if err != nil && shouldFallBack(err) && ctx.Err() == nil {
		log.Warn().Err(err).Str("city_code", q.CityCode).Msg("hotel search falling back to mock data")
		return f.fallback.FindHotels(ctx, q)
	}
	return res, err
}

func (f *FallbackBooking) FindFlights(ctx context.Context, q FlightQuery) (*response_models.FlightSearch, error) {
	res, err := f.primary.FindFlights(ctx, q)
	if err != nil && shouldFallBack(err) && ctx.Err() == nil {
		log.Warn().Err(err).Str("origin", q.Origin).Str("destination", q.Destination).Msg("flight search falling back to mock data")
		return f.fallback.FindFlights(ctx, q)
	}
	return res, err
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
