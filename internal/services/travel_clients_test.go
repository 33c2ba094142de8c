package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tabi/internal/models/response_models"
	"tabi/pkg/cache"
	"tabi/pkg/utils"
)

func TestRoutesService_ComputeRoute(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/directions/v2:computeRoutes" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Goog-FieldMask") != routesFieldMask {
			t.Errorf("field mask: %q", r.Header.Get("X-Goog-FieldMask"))
		}
		var body computeRoutesRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.TravelMode != "DRIVE" || body.RoutingPreference != "TRAFFIC_AWARE" || body.Origin.Location.LatLng.Latitude != 35.68 {
			t.Errorf("body: %+v", body)
		}
		writeJSON(w, map[string]any{"routes": []any{map[string]any{
			"distanceMeters": 503000,
			"duration":       "22345s",
			"polyline":       map[string]any{"encodedPolyline": "_p~iF~ps|U"},
		}}})
	}))
	defer ts.Close()

	svc := NewRoutesService(ts.Client(), ts.URL)
	route, err := svc.ComputeRoute(context.Background(), response_models.LatLng{Lat: 35.68, Lng: 139.76}, response_models.LatLng{Lat: 34.69, Lng: 135.5})
	if err != nil {
		t.Fatal(err)
	}
	if route.DistanceMeters != 503000 || route.DurationMinutes != 372 || route.Polyline != "_p~iF~ps|U" {
		t.Fatalf("route: %+v", route)
	}
}

func TestRoutesService_NoRoute(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	}))
	defer ts.Close()

	_, err := NewRoutesService(ts.Client(), ts.URL).ComputeRoute(context.Background(), response_models.LatLng{}, response_models.LatLng{})
	if !errors.Is(err, utils.ErrUpstreamNotFound) || !strings.Contains(err.Error(), "No route found between the specified points") {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestParseDurationSeconds(t *testing.T) {
	for in, want := range map[string]int{"0s": 0, "59s": 59, "3600s": 3600, "12.5s": 12} {
		got, err := parseDurationSeconds(in)
		if err != nil || got != want {
			t.Fatalf("%s => %d %v", in, got, err)
		}
	}
	if _, err := parseDurationSeconds("soon"); err == nil {
		t.Fatal("expected error")
	}
}

func newTestPlaces(t *testing.T, h http.HandlerFunc) (PlacesServiceInterface, *int32) {
	t.Helper()
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	svc, err := NewPlacesService(context.Background(), ts.Client(), "KEY", ts.URL+"/", cache.NewMemory(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return svc, &hits
}

func TestPlacesService_GeocodeIsCached(t *testing.T) {
	svc, hits := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/places:searchText") {
			t.Errorf("path: %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["textQuery"] != "Kyoto" || body["languageCode"] != "en" {
			t.Errorf("body: %v", body)
		}
		writeJSON(w, map[string]any{"places": []any{map[string]any{
			"displayName": map[string]any{"text": "Kyoto"},
			"location":    map[string]any{"latitude": 35.0116, "longitude": 135.7681},
		}}})
	})

	for i := 0; i < 2; i++ {
		city, err := svc.Geocode(context.Background(), "Kyoto")
		if err != nil {
			t.Fatal(err)
		}
		if city.Name != "Kyoto" || city.Lat != 35.0116 || city.Lng != 135.7681 {
			t.Fatalf("city: %+v", city)
		}
	}
	if *hits != 1 {
		t.Fatalf("expected one upstream call, got %d", *hits)
	}
}

func TestPlacesService_GeocodeNotFound(t *testing.T) {
	svc, _ := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	})
	_, err := svc.Geocode(context.Background(), "Atlantis")
	if !errors.Is(err, utils.ErrUpstreamNotFound) || !strings.Contains(err.Error(), "City 'Atlantis' not found") {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestPlacesService_SearchPOIs(t *testing.T) {
	svc, _ := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TextQuery      string `json:"textQuery"`
			MaxResultCount int    `json:"maxResultCount"`
			LocationBias   struct {
				Circle struct {
					Radius float64 `json:"radius"`
				} `json:"circle"`
			} `json:"locationBias"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.TextQuery != "museum in Kyoto" || body.MaxResultCount != 10 || body.LocationBias.Circle.Radius != 15000 {
			t.Errorf("body: %+v", body)
		}
		writeJSON(w, map[string]any{"places": []any{
			map[string]any{
				"id":               "p1",
				"displayName":      map[string]any{"text": "Kyoto National Museum"},
				"location":         map[string]any{"latitude": 34.99, "longitude": 135.77},
				"rating":           4.5,
				"userRatingCount":  1200,
				"editorialSummary": map[string]any{"text": "Art and artefacts"},
				"currentOpeningHours": map[string]any{
					"openNow":             true,
					"weekdayDescriptions": []string{"Monday: Closed"},
				},
				"photos": []any{
					map[string]any{"name": "places/p1/photos/a"},
					map[string]any{"name": "places/p1/photos/b"},
					map[string]any{"name": "places/p1/photos/c"},
					map[string]any{"name": "places/p1/photos/d"},
				},
			},
		}})
	})

	pois, err := svc.SearchPOIs(context.Background(), "Kyoto", "museum", response_models.LatLng{Lat: 35, Lng: 135.7}, 15000)
	if err != nil {
		t.Fatal(err)
	}
	if len(pois) != 1 {
		t.Fatalf("pois: %+v", pois)
	}
	p := pois[0]
	if p.Name != "Kyoto National Museum" || p.Category != "museum" || p.Address != "N/A" || p.PriceLevel != "PRICE_LEVEL_UNSPECIFIED" {
		t.Fatalf("poi: %+v", p)
	}
	if p.Description != "Art and artefacts" || p.OpeningHours == nil || !p.OpeningHours.OpenNow {
		t.Fatalf("details: %+v", p)
	}
	if len(p.Photos) != 3 || p.Photos[0] != "https://places.googleapis.com/v1/places/p1/photos/a/media?key=KEY&maxHeightPx=400&maxWidthPx=400" {
		t.Fatalf("photos: %v", p.Photos)
	}
}

func TestPlacesService_NearbyFailureIsEmpty(t *testing.T) {
	svc, _ := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
	})
	if got := svc.NearbyLocalities(context.Background(), response_models.LatLng{Lat: 35, Lng: 137}, 30000); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func newFakeAmadeus(t *testing.T, handler http.HandlerFunc) (AmadeusServiceInterface, *int32) {
	t.Helper()
	var tokens int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokens, 1)
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("client_id") != "id" || r.Form.Get("client_secret") != "secret" {
			t.Errorf("token form: %v", r.Form)
		}
		writeJSON(w, map[string]any{"access_token": "tok", "token_type": "Bearer", "expires_in": 1799})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization: %q", r.Header.Get("Authorization"))
		}
		handler(w, r)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return NewAmadeusService(ts.Client(), ts.URL, "id", "secret"), &tokens
}

func TestAmadeus_HotelsReuseToken(t *testing.T) {
	svc, tokens := newFakeAmadeus(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/reference-data/locations/hotels/by-city":
			if r.URL.Query().Get("cityCode") != "TYO" {
				t.Errorf("cityCode: %s", r.URL.RawQuery)
			}
			writeJSON(w, map[string]any{"data": []any{
				map[string]any{"hotelId": "H1", "name": "One"},
				map[string]any{"hotelId": "H2", "name": "Two"},
				map[string]any{"hotelId": "H3", "name": "Three"},
			}})
		case "/v3/shopping/hotel-offers":
			q := r.URL.Query()
			if q.Get("hotelIds") != "H1,H2" || q.Get("bestRateOnly") != "true" || q.Get("adults") != "2" {
				t.Errorf("offers query: %s", r.URL.RawQuery)
			}
			writeJSON(w, map[string]any{"data": []any{
				map[string]any{
					"hotel": map[string]any{"hotelId": "H1", "name": "One", "rating": "4", "address": map[string]any{"lines": []string{"1 Chome"}}},
					"offers": []any{map[string]any{
						"price": map[string]any{"total": "300.00", "currency": "USD"},
						"room": map[string]any{
							"typeEstimated": map[string]any{"category": "STANDARD_ROOM", "bedType": "DOUBLE"},
							"description":   map[string]any{"text": "Free wifi, Breakfast ,"},
						},
					}},
				},
				map[string]any{
					"hotel":  map[string]any{"hotelId": "H2", "name": "Two"},
					"offers": []any{map[string]any{"price": map[string]any{"total": "900.00", "currency": "USD"}}},
				},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	hotels, err := svc.ListHotels(ctx, "tyo", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hotels) != 2 {
		t.Fatalf("hotels: %+v", hotels)
	}
	offers, err := svc.HotelOffers(ctx, []string{"H1", "H2"}, HotelQuery{CityCode: "TYO", CheckIn: "2030-05-01", CheckOut: "2030-05-04", Adults: 2, MaxPrice: 500, Currency: "USD"})
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 1 {
		t.Fatalf("max price filter: %+v", offers)
	}
	o := offers[0]
	if o.PricePerNight != 100 || o.Nights != 3 || o.RoomType != "STANDARD_ROOM" || o.BedType != "DOUBLE" || o.Address != "1 Chome" {
		t.Fatalf("offer: %+v", o)
	}
	if len(o.Amenities) != 2 || o.Amenities[1] != "Breakfast" {
		t.Fatalf("amenities: %v", o.Amenities)
	}
	if *tokens != 1 {
		t.Fatalf("expected a single token fetch, got %d", *tokens)
	}
}

func TestAmadeus_FlightOffers(t *testing.T) {
	seg := func(from, to string) map[string]any {
		return map[string]any{
			"departure":   map[string]any{"iataCode": from, "at": "2030-05-01T10:00:00"},
			"arrival":     map[string]any{"iataCode": to, "terminal": "1", "at": "2030-05-01T12:00:00"},
			"carrierCode": "NH", "number": "12", "aircraft": map[string]any{"code": "788"}, "duration": "PT2H",
		}
	}
	svc, _ := newFakeAmadeus(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("originLocationCode") != "HND" || q.Get("returnDate") != "2030-05-09" || q.Get("maxPrice") != "1500" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		writeJSON(w, map[string]any{"data": []any{map[string]any{
			"id":                     "1",
			"numberOfBookableSeats":  4,
			"validatingAirlineCodes": []string{"NH"},
			"price":                  map[string]any{"total": "1200.50", "currency": "USD"},
			"itineraries": []any{
				map[string]any{"duration": "PT5H", "segments": []any{seg("HND", "ITM"), seg("ITM", "CTS")}},
				map[string]any{"duration": "PT2H", "segments": []any{seg("CTS", "HND")}},
			},
		}}})
	})

	flights, err := svc.FlightOffers(context.Background(), FlightQuery{
		Origin: "HND", Destination: "CTS", DepartureDate: "2030-05-01", ReturnDate: "2030-05-09",
		Adults: 2, TravelClass: "ECONOMY", MaxPrice: 1500.9, Currency: "USD", Max: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	f := flights[0]
	if f.Type != "round-trip" || f.NumberOfStops != 1 || f.PricePerPerson != 600.25 || f.SeatsAvailable != 4 || f.Airline != "NH" {
		t.Fatalf("flight: %+v", f)
	}
	if f.Outbound.Segments[0].Departure.Terminal != "N/A" || f.Outbound.Segments[0].Arrival.Terminal != "1" {
		t.Fatalf("segment: %+v", f.Outbound.Segments[0])
	}
}

func TestAmadeus_ErrorDetailSurfaced(t *testing.T) {
	svc, _ := newFakeAmadeus(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]any{"errors": []any{map[string]any{"title": "INVALID FORMAT", "detail": "departureDate must be in the future"}}})
	})
	_, err := svc.FlightOffers(context.Background(), FlightQuery{Origin: "HND", Destination: "CTS", Adults: 1, Max: 1})
	if !errors.Is(err, utils.ErrUpstreamBadRequest) || !strings.Contains(err.Error(), "departureDate must be in the future") {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestCurrencyService(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/USD":
			writeJSON(w, map[string]any{
				"result": "success", "base_code": "USD", "time_last_update_utc": "Mon, 01 Jan 2030 00:00:01 +0000",
				"rates": map[string]float64{"USD": 1, "JPY": 151.234},
			})
		default:
			writeJSON(w, map[string]any{"result": "error", "error-type": "unsupported-code"})
		}
	}))
	defer ts.Close()

	svc := NewCurrencyService(ts.Client(), ts.URL, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.Convert(ctx, 100, "usd", "jpy")
		if err != nil {
			t.Fatal(err)
		}
		if got.Rate != 151.234 || got.Converted != 15123.4 || got.From != "USD" || got.AsOf == "" {
			t.Fatalf("conversion: %+v", got)
		}
	}
	if hits != 1 {
		t.Fatalf("rates should be cached, got %d calls", hits)
	}

	if got, err := svc.Convert(ctx, 5, "EUR", "eur"); err != nil || got.Converted != 5 || got.Rate != 1 {
		t.Fatalf("same currency: %+v %v", got, err)
	}
	if _, err := svc.Convert(ctx, 1, "USD", "XYZ"); !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("unknown target: %v", err)
	}
	if _, err := svc.Convert(ctx, 1, "ABC", "USD"); !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("unknown base: %v", err)
	}
	if _, err := svc.Convert(ctx, 1, "dollars", "USD"); !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("bad code: %v", err)
	}
}
