package tools

import (
	"context"
	"fmt"
	"strings"

	"tabi/internal/agents"
	"tabi/internal/models/response_models"
	"tabi/internal/transit"
	"tabi/pkg/utils"
)

const (
	strategyCheapest    = "cheapest"
	strategyFewestStops = "fewest_stops"
)

type transitRouteArgs struct {
	StartCity string `json:"start_city" jsonschema:"description=City to leave from"`
	EndCity   string `json:"end_city" jsonschema:"description=City to arrive at"`
	Strategy  string `json:"strategy,omitempty" jsonschema:"enum=cheapest,enum=fewest_stops,description=Route preference (default cheapest)"`
}

// TransitRoute plans a rail/bus/air path over the static network of Japanese cities.
func TransitRoute(g *transit.Graph) agents.Tool {
	return agents.NewTool("transit_route",
		"Plan a public transport route between two Japanese cities. Legs use public transport "+
			"or shinkansen or domestic flights. Known cities: "+strings.Join(g.Cities(), ", ")+".",
		func(_ context.Context, args transitRouteArgs) (any, error) {
			return transitRoute(g, args)
		})
}

func transitRoute(g *transit.Graph, args transitRouteArgs) (*response_models.TransitRoute, error) {
	for _, c := range []string{args.StartCity, args.EndCity} {
		if !g.Has(c) {
			return nil, fmt.Errorf("%w: unknown city %q", utils.ErrInvalidInput, c)
		}
	}
	strategy := strings.ToLower(strings.TrimSpace(args.Strategy))
	var path []string
	switch strategy {
	case "", strategyCheapest:
		strategy = strategyCheapest
		path = g.CheapestPath(args.StartCity, args.EndCity)
	case strategyFewestStops:
		path = g.FewestStops(args.StartCity, args.EndCity)
	default:
		return nil, fmt.Errorf("%w: strategy must be %s or %s", utils.ErrInvalidInput, strategyCheapest, strategyFewestStops)
	}
	if path == nil {
		return nil, fmt.Errorf("%w: no route between %s and %s", utils.ErrInvalidInput, args.StartCity, args.EndCity)
	}

	legs := []response_models.TransitLeg{}
	for _, l := range g.Legs(path) {
		legs = append(legs, response_models.TransitLeg{From: l.From, To: l.To, Mode: l.Mode})
	}
	return &response_models.TransitRoute{
		Start:    path[0],
		End:      path[len(path)-1],
		Strategy: strategy,
		Path:     path,
		Legs:     legs,
		Cost:     g.Cost(path),
	}, nil
}
