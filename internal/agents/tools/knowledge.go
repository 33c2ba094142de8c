package tools

import (
	"context"

	"tabi/internal/agents"
)

type cityInformationArgs struct {
	Query string `json:"query" jsonschema:"description=Generic question about a city or region"`
}

// CityInformation answers from the uploaded travel guides.
func CityInformation(kb Knowledge) agents.Tool {
	return agents.NewTool("city_information",
		"Retrieve relevant information about cities from the travel guide library.",
		func(ctx context.Context, args cityInformationArgs) (any, error) {
			return kb.CityInformation(ctx, args.Query)
		})
}
