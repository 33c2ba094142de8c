package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tabi/pkg/llm"
	"tabi/pkg/utils"
)

const (
	Pathfinder   = "pathfinder"
	Explorer     = "explorer"
	Booker       = "booker"
	Budgeteer    = "budgeteer"
	Receptionist = "receptionist"

	maxTitleRunes = 64
)

// Toolset is every tool the crew's members use.
type Toolset struct {
	CitiesBetween     Tool
	TransitRoute      Tool
	CityInformation   Tool
	PointsOfInterest  Tool
	Flights           Tool
	Hotels            Tool
	Calculator        Tool
	CurrencyConverter Tool
}

// All returns the tools in a stable order.
func (t Toolset) All() []Tool {
	return []Tool{
		t.CitiesBetween, t.TransitRoute, t.CityInformation, t.PointsOfInterest,
		t.Flights, t.Hotels, t.Calculator, t.CurrencyConverter,
	}
}

type CrewConfig struct {
	MaxIterations int
	// Timeout bounds one Plan call.
	Timeout time.Duration
}

// Crew is the receptionist and the four coworkers it delegates to.
type Crew struct {
	model        llm.Client
	receptionist *Agent
	members      map[string]*Agent
	timeout      time.Duration
}

func NewCrew(model llm.Client, ts Toolset, cfg CrewConfig) (*Crew, error) {
	c := &Crew{model: model, members: map[string]*Agent{}, timeout: cfg.Timeout}

	specs := []struct {
		name, prompt string
		tools        []Tool
	}{
		{Pathfinder, pathfinderPrompt, []Tool{ts.CitiesBetween, ts.TransitRoute}},
		{Explorer, explorerPrompt, []Tool{ts.CityInformation, ts.PointsOfInterest}},
		{Booker, bookerPrompt, []Tool{ts.Flights, ts.Hotels}},
		{Budgeteer, budgeteerPrompt, []Tool{ts.Calculator, ts.CurrencyConverter}},
	}
	for _, s := range specs {
		reg, err := NewRegistry(s.tools...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		c.members[s.name] = &Agent{
			Name:          s.name,
			SystemPrompt:  s.prompt,
			Model:         model,
			Tools:         reg,
			MaxIterations: cfg.MaxIterations,
		}
	}

	reg, err := NewRegistry(
		Delegate(c.members[Pathfinder], "call_pathfinder", callPathfinderDesc),
		Delegate(c.members[Explorer], "call_explorer", callExplorerDesc),
		Delegate(c.members[Booker], "call_booker", callBookerDesc),
		Delegate(c.members[Budgeteer], "call_budgeteer", callBudgeteerDesc),
	)
	if err != nil {
		return nil, err
	}
	c.receptionist = &Agent{
		Name:          Receptionist,
		SystemPrompt:  receptionistPrompt,
		Model:         model,
		Tools:         reg,
		MaxIterations: cfg.MaxIterations,
	}
	c.members[Receptionist] = c.receptionist
	return c, nil
}

// Member returns the named agent.
func (c *Crew) Member(name string) (*Agent, bool) {
	a, ok := c.members[name]
	return a, ok
}

// Plan runs the receptionist on a customer request. The result carries the
// steps and usage of every coworker it called.
func (c *Crew) Plan(ctx context.Context, prompt string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	trace := &Trace{}
	start := time.Now()

	res, err := c.receptionist.Run(WithTrace(ctx, trace), prompt)
	if err != nil {
		return nil, err
	}
	res.Steps = trace.Steps()
	res.Usage = trace.Usage()

	log.Info().
		Int("steps", len(res.Steps)).
		Int("input_tokens", res.Usage.InputTokens).
		Int("output_tokens", res.Usage.OutputTokens).
		Dur("took", time.Since(start)).
		Msg("plan generated")
	return res, nil
}

// Title asks the model for a short plain-text title for content.
func (c *Crew) Title(ctx context.Context, content string) (string, error) {
	raw, err := llm.Complete(ctx, c.model, titlePrompt+content)
	if err != nil {
		return "", err
	}
	return cleanTitle(raw), nil
}

func cleanTitle(raw string) string {
	t := utils.StripHTML(raw)
	t = strings.TrimLeft(t, "# ")
	t = strings.Trim(t, "\"'*` ")
	if r := []rune(t); len(r) > maxTitleRunes {
		t = strings.TrimSpace(string(r[:maxTitleRunes]))
	}
	return t
}
