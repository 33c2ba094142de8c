package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"tabi/internal/agents"
	"tabi/internal/models/response_models"
	"tabi/internal/services"
	"tabi/pkg/utils"
)

const (
	poiRadiusMeters  = 15000
	defaultMinRating = 4.0
	defaultPOILimit  = 20
	maxPOILimit      = 60
)

var defaultCategories = []string{
	"tourist_attraction",
	"museum",
	"park",
	"restaurant",
	"shopping_mall",
	"art_gallery",
}

type pointsOfInterestArgs struct {
	City       string   `json:"city" jsonschema:"description=City name"`
	Categories []string `json:"categories,omitempty" jsonschema:"description=Place categories such as tourist_attraction or museum or restaurant"`
	MinRating  *float64 `json:"min_rating,omitempty" jsonschema:"description=Minimum rating from 0 to 5 (default 4.0)"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"description=Maximum number of results (default 20)"`
}

// PointsOfInterest searches notable places in a city, one text search per category.
func PointsOfInterest(places services.PlacesServiceInterface, workers int) agents.Tool {
	sem := semaphore.NewWeighted(int64(max(1, workers)))
	return agents.NewTool("find_points_of_interest",
		"Find notable attractions in a city with ratings and opening hours and photos. "+
			"Results are sorted by rating.",
		func(ctx context.Context, args pointsOfInterestArgs) (any, error) {
			return pointsOfInterest(ctx, places, sem, args)
		})
}

func pointsOfInterest(ctx context.Context, places services.PlacesServiceInterface, sem *semaphore.Weighted, args pointsOfInterestArgs) (*response_models.PointsOfInterest, error) {
	query := strings.TrimSpace(args.City)
	if query == "" {
		return nil, fmt.Errorf("%w: city is required", utils.ErrInvalidInput)
	}
	categories := cleanCategories(args.Categories)
	minRating := defaultMinRating
	if args.MinRating != nil {
		minRating = *args.MinRating
	}
	limit := args.MaxResults
	if limit <= 0 {
		limit = defaultPOILimit
	}
	limit = min(limit, maxPOILimit)

	city, err := places.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([][]response_models.PointOfInterest, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			// Text search uses the caller's wording; the geocoder may rename the place.
			pois, err := places.SearchPOIs(gctx, query, category, city.LatLng(), poiRadiusMeters)
			if err != nil {
				log.Warn().Err(err).Str("city", query).Str("category", category).Msg("category search failed, skipping")
				return nil
			}
			results[i] = pois
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := []response_models.PointOfInterest{}
	seen := map[string]bool{}
	for _, pois := range results {
		for _, p := range pois {
			if p.Rating < minRating {
				continue
			}
			if p.PlaceID != "" {
				if seen[p.PlaceID] {
					continue
				}
				seen[p.PlaceID] = true
			}
			all = append(all, p)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].UserRatingsTotal > all[j].UserRatingsTotal
	})
	if len(all) > limit {
		all = all[:limit]
	}

	return &response_models.PointsOfInterest{
		City:             city.Name,
		Location:         city.LatLng(),
		PointsOfInterest: all,
	}, nil
}

func cleanCategories(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return defaultCategories
	}
	return out
}
