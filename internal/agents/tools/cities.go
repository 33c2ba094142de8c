package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"tabi/internal/agents"
	"tabi/internal/models/response_models"
	"tabi/internal/services"
	"tabi/pkg/utils"
)

const (
	sampleSpacingKm     = 50
	nearbyRadiusMeters  = 30000
	defaultDetourMins   = 120
	nearbyParallelCalls = 4
)

type citiesBetweenArgs struct {
	OriginCity       string `json:"origin_city" jsonschema:"description=Starting city name"`
	DestinationCity  string `json:"destination_city" jsonschema:"description=Ending city name"`
	MaxDetourMinutes *int   `json:"max_detour_minutes,omitempty" jsonschema:"description=Maximum extra driving time in minutes to visit the city and come back to the route (default 120). Estimated as twice the city's distance from the route at the route's average speed."`
}

// CitiesBetween finds towns along the driving route between two cities.
func CitiesBetween(places services.PlacesServiceInterface, routes services.RoutesServiceInterface) agents.Tool {
	return agents.NewTool("find_cities_between",
		"Find the cities along the route between an origin and a destination city. "+
			"Returns each intermediate city with its distance and estimated travel time from the origin. "+
			"Cities whose estimated round-trip detour off the route exceeds max_detour_minutes are left out.",
		func(ctx context.Context, args citiesBetweenArgs) (any, error) {
			return citiesBetween(ctx, places, routes, args)
		})
}

func citiesBetween(ctx context.Context, places services.PlacesServiceInterface, routes services.RoutesServiceInterface, args citiesBetweenArgs) (*response_models.CitiesBetween, error) {
	if strings.TrimSpace(args.OriginCity) == "" || strings.TrimSpace(args.DestinationCity) == "" {
		return nil, fmt.Errorf("%w: origin_city and destination_city are required", utils.ErrInvalidInput)
	}
	maxDetour := defaultDetourMins
	if args.MaxDetourMinutes != nil && *args.MaxDetourMinutes >= 0 {
		maxDetour = *args.MaxDetourMinutes
	}

	origin, err := places.Geocode(ctx, args.OriginCity)
	if err != nil {
		return nil, err
	}
	destination, err := places.Geocode(ctx, args.DestinationCity)
	if err != nil {
		return nil, err
	}
	route, err := routes.ComputeRoute(ctx, origin.LatLng(), destination.LatLng())
	if err != nil {
		return nil, err
	}
	totalKm := float64(route.DistanceMeters) / 1000

	points, err := decodePolyline(route.Polyline)
	if err != nil {
		return nil, err
	}
	samples := samplePoints(points, totalKm, sampleSpacingKm)

	nearby := make([][]response_models.City, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nearbyParallelCalls)
	for i, p := range samples {
		g.Go(func() error {
			nearby[i] = places.NearbyLocalities(gctx, p, nearbyRadiusMeters)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Off-route distance is covered twice, at the route's average speed.
	var kmPerMinute float64
	if route.DurationMinutes > 0 {
		kmPerMinute = totalKm / float64(route.DurationMinutes)
	}

	seen := map[string]bool{origin.Name: true, destination.Name: true}
	found := []response_models.IntermediateCity{}
	for i, cities := range nearby {
		for _, c := range cities {
			if seen[c.Name] {
				continue
			}
			fromOrigin := haversineKm(origin.LatLng(), c.LatLng())
			detour := 0
			if kmPerMinute > 0 {
				detour = int(2 * haversineKm(samples[i], c.LatLng()) / kmPerMinute)
			}
			// A later sample may pass closer to a town rejected here.
			if detour > maxDetour {
				continue
			}
			seen[c.Name] = true
			eta := 0
			if totalKm > 0 {
				eta = int(fromOrigin / totalKm * float64(route.DurationMinutes))
			}
			found = append(found, response_models.IntermediateCity{
				Name:                       c.Name,
				Lat:                        c.Lat,
				Lng:                        c.Lng,
				DistanceFromOriginKm:       round2(fromOrigin),
				EstimatedTravelTimeMinutes: eta,
				EstimatedDetourMinutes:     detour,
			})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].DistanceFromOriginKm < found[j].DistanceFromOriginKm })

	return &response_models.CitiesBetween{
		Origin:               *origin,
		Destination:          *destination,
		IntermediateCities:   found,
		TotalDistanceKm:      round2(totalKm),
		TotalDurationMinutes: route.DurationMinutes,
	}, nil
}
