package agents_fx

import (
	"go.uber.org/fx"

	"tabi/internal/agents"
	"tabi/internal/agents/tools"
	"tabi/internal/config"
	"tabi/internal/services"
	"tabi/pkg/llm"
)

var Module = fx.Provide(
	provideToolset,
	provideCrew,
	providePlanner,
	provideToolRegistry,
)

func provideToolset(
	places services.PlacesServiceInterface,
	routes services.RoutesServiceInterface,
	booking services.BookingProvider,
	currency services.CurrencyServiceInterface,
	documents services.DocumentServiceInterface,
) agents.Toolset {
	return tools.NewToolset(tools.Deps{
		Places:    places,
		Routes:    routes,
		Booking:   booking,
		Currency:  currency,
		Knowledge: documents,
	})
}

func provideCrew(model llm.Client, ts agents.Toolset, cfg config.Config) (*agents.Crew, error) {
	return agents.NewCrew(model, ts, agents.CrewConfig{
		MaxIterations: cfg.LLMMaxIterations,
		Timeout:       cfg.LLMTimeout,
	})
}

func providePlanner(c *agents.Crew) services.Planner {
	return c
}

// provideToolRegistry exposes every tool on its own for the dev endpoint.
func provideToolRegistry(ts agents.Toolset) (*agents.Registry, error) {
	return agents.NewRegistry(ts.All()...)
}
