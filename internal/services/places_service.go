package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	places "google.golang.org/api/places/v1"

	"tabi/internal/models/response_models"
	"tabi/pkg/cache"
)

const serviceGoogle = "google"

var nearbyTypes = []string{"locality", "administrative_area_level_3"}

type PlacesServiceInterface interface {
	// Geocode resolves a city name to its first text search match.
	Geocode(ctx context.Context, city string) (*response_models.City, error)
	// NearbyLocalities lists towns around center. Failures yield an empty list.
	NearbyLocalities(ctx context.Context, center response_models.LatLng, radiusMeters float64) []response_models.City
	SearchPOIs(ctx context.Context, city, category string, center response_models.LatLng, radiusMeters float64) ([]response_models.PointOfInterest, error)
}

type PlacesService struct {
	svc    *places.Service
	apiKey string
	cache  cache.Cache
	ttl    time.Duration
}

// NewPlacesService builds the Places (New) client on top of hc, which is
// expected to add the X-Goog-Api-Key header.
func NewPlacesService(ctx context.Context, hc *http.Client, apiKey, endpoint string, c cache.Cache, ttl time.Duration) (PlacesServiceInterface, error) {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := places.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("places client: %w", err)
	}
	return &PlacesService{svc: svc, apiKey: apiKey, cache: c, ttl: ttl}, nil
}

func (p *PlacesService) Geocode(ctx context.Context, city string) (*response_models.City, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, &APIError{Service: serviceGoogle, Endpoint: "places.searchText", Status: http.StatusBadRequest, Message: "city name is empty"}
	}
	key := "geocode:" + strings.ToLower(city)
	return cache.Remember(ctx, p.cache, key, p.ttl, func(ctx context.Context) (*response_models.City, error) {
		resp, err := p.svc.Places.SearchText(&places.GoogleMapsPlacesV1SearchTextRequest{
			TextQuery:    city,
			LanguageCode: "en",
		}).
			Fields("places.displayName,places.location,places.formattedAddress").
			Context(WithEndpoint(ctx, "places.searchText")).
			Do()
		if err != nil {
			return nil, fromGoogleAPI(serviceGoogle, "places.searchText", err)
		}
		if len(resp.Places) == 0 || resp.Places[0].Location == nil {
			return nil, notFound(serviceGoogle, "places.searchText", fmt.Sprintf("City '%s' not found", city))
		}
		pl := resp.Places[0]
		return &response_models.City{
			Name: displayName(pl),
			Lat:  pl.Location.Latitude,
			Lng:  pl.Location.Longitude,
		}, nil
	})
}

func (p *PlacesService) NearbyLocalities(ctx context.Context, center response_models.LatLng, radiusMeters float64) []response_models.City {
	key := fmt.Sprintf("nearby:%.3f,%.3f:%d", center.Lat, center.Lng, int(radiusMeters))
	out, err := cache.Remember(ctx, p.cache, key, p.ttl, func(ctx context.Context) ([]response_models.City, error) {
		resp, err := p.svc.Places.SearchNearby(&places.GoogleMapsPlacesV1SearchNearbyRequest{
			IncludedTypes:  nearbyTypes,
			MaxResultCount: 20,
			LocationRestriction: &places.GoogleMapsPlacesV1SearchNearbyRequestLocationRestriction{
				Circle: circle(center, radiusMeters),
			},
		}).
			Fields("places.displayName,places.location,places.types").
			Context(WithEndpoint(ctx, "places.searchNearby")).
			Do()
		if err != nil {
			return nil, fromGoogleAPI(serviceGoogle, "places.searchNearby", err)
		}
		cities := make([]response_models.City, 0, len(resp.Places))
		for _, pl := range resp.Places {
			if pl.Location == nil {
				continue
			}
			cities = append(cities, response_models.City{Name: displayName(pl), Lat: pl.Location.Latitude, Lng: pl.Location.Longitude})
		}
		return cities, nil
	})
	if err != nil {
		log.Warn().Err(err).Float64("lat", center.Lat).Float64("lng", center.Lng).Msg("nearby search failed")
		return nil
	}
	return out
}

func (p *PlacesService) SearchPOIs(ctx context.Context, city, category string, center response_models.LatLng, radiusMeters float64) ([]response_models.PointOfInterest, error) {
	query := fmt.Sprintf("%s in %s", category, city)
	key := "poi:" + strings.ToLower(query)
	return cache.Remember(ctx, p.cache, key, p.ttl, func(ctx context.Context) ([]response_models.PointOfInterest, error) {
		resp, err := p.svc.Places.SearchText(&places.GoogleMapsPlacesV1SearchTextRequest{
			TextQuery:      query,
			LanguageCode:   "en",
			MaxResultCount: 10,
			LocationBias: &places.GoogleMapsPlacesV1SearchTextRequestLocationBias{
				Circle: circle(center, radiusMeters),
			},
		}).
			Fields(googleapi.Field("places.id,places.displayName,places.formattedAddress," +
				"places.location,places.rating,places.userRatingCount," +
				"places.priceLevel,places.types,places.editorialSummary," +
				"places.currentOpeningHours,places.photos")).
			Context(WithEndpoint(ctx, "places.searchText")).
			Do()
		if err != nil {
			return nil, fromGoogleAPI(serviceGoogle, "places.searchText", err)
		}

		pois := make([]response_models.PointOfInterest, 0, len(resp.Places))
		for _, pl := range resp.Places {
			pois = append(pois, p.toPOI(pl, category))
		}
		return pois, nil
	})
}

func (p *PlacesService) toPOI(pl *places.GoogleMapsPlacesV1Place, category string) response_models.PointOfInterest {
	poi := response_models.PointOfInterest{
		Name:             displayName(pl),
		PlaceID:          pl.Id,
		Category:         category,
		Address:          pl.FormattedAddress,
		Rating:           pl.Rating,
		UserRatingsTotal: pl.UserRatingCount,
		PriceLevel:       pl.PriceLevel,
		Photos:           []string{},
	}
	if poi.Address == "" {
		poi.Address = "N/A"
	}
	if poi.PriceLevel == "" {
		poi.PriceLevel = "PRICE_LEVEL_UNSPECIFIED"
	}
	if pl.Location != nil {
		poi.Location = response_models.LatLng{Lat: pl.Location.Latitude, Lng: pl.Location.Longitude}
	}
	if pl.EditorialSummary != nil {
		poi.Description = pl.EditorialSummary.Text
	}
	if h := pl.CurrentOpeningHours; h != nil {
		poi.OpeningHours = &response_models.OpeningHours{
			OpenNow:     h.OpenNow,
			WeekdayText: h.WeekdayDescriptions,
		}
		if poi.OpeningHours.WeekdayText == nil {
			poi.OpeningHours.WeekdayText = []string{}
		}
	}
	for _, ph := range pl.Photos {
		if len(poi.Photos) == 3 {
			break
		}
		if ph == nil || ph.Name == "" {
			continue
		}
		poi.Photos = append(poi.Photos, fmt.Sprintf(
			"https://places.googleapis.com/v1/%s/media?key=%s&maxHeightPx=400&maxWidthPx=400", ph.Name, p.apiKey))
	}
	return poi
}

func circle(center response_models.LatLng, radius float64) *places.GoogleMapsPlacesV1Circle {
	return &places.GoogleMapsPlacesV1Circle{
		Center: &places.GoogleTypeLatLng{Latitude: center.Lat, Longitude: center.Lng},
		Radius: math.Min(radius, 50000),
	}
}

func displayName(pl *places.GoogleMapsPlacesV1Place) string {
	if pl.DisplayName != nil {
		return pl.DisplayName.Text
	}
	return pl.FormattedAddress
}
