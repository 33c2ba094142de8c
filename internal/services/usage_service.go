package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tabi/internal/models/db_models"
	"tabi/internal/models/response_models"
	"tabi/internal/repositories"
	"tabi/pkg/observability"
	"tabi/pkg/utils"
)

// Call is one outbound HTTP exchange. Status 0 means no response was received.
type Call struct {
	Service  string
	Endpoint string
	Status   int
	Duration time.Duration
}

type UsageRecorder interface {
	Record(ctx context.Context, call Call)
}

type UsageServiceInterface interface {
	UsageRecorder
	Summary(ctx context.Context, since time.Time) (*response_models.UsageSummary, error)
}

// costTable holds list prices in USD per request. Unlisted endpoints are free.
var costTable = map[string]float64{
	"google/places.searchText":    0.032,
	"google/places.searchNearby":  0.032,
	"google/routes.computeRoutes": 0.005,
}

func EstimateCost(service, endpoint string, status int) float64 {
	if status == 0 || status >= 400 {
		return 0
	}
	return costTable[service+"/"+endpoint]
}

type UsageService struct {
	repo repositories.UsageRepository
}

func NewUsageService(repo repositories.UsageRepository) UsageServiceInterface {
	return &UsageService{repo: repo}
}

func (s *UsageService) Record(ctx context.Context, call Call) {
	cost := EstimateCost(call.Service, call.Endpoint, call.Status)
	observability.ObserveExternal(call.Service, call.Endpoint, call.Status, call.Duration, cost)
	if s.repo == nil {
		return
	}

	// The ledger write must survive the caller giving up on its request.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	err := s.repo.Insert(wctx, &db_models.ApiCall{
		Service:    call.Service,
		Endpoint:   call.Endpoint,
		Status:     call.Status,
		DurationMs: call.Duration.Milliseconds(),
		CostUSD:    cost,
	})
	if err != nil {
		log.Warn().Err(err).Str("service", call.Service).Str("endpoint", call.Endpoint).Msg("could not record api call")
	}
}

func (s *UsageService) Summary(ctx context.Context, since time.Time) (*response_models.UsageSummary, error) {
	rows, err := s.repo.Summary(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("usage summary query failed")
		return nil, utils.ErrDatabaseError
	}
	out := &response_models.UsageSummary{Since: since.Unix(), Rows: make([]response_models.UsageRow, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, response_models.UsageRow{
			Service:  r.Service,
			Endpoint: r.Endpoint,
			Calls:    r.Calls,
			Errors:   r.Errors,
			AvgMs:    r.AvgMs,
			CostUSD:  r.CostUSD,
		})
		out.CostUSD += r.CostUSD
	}
	return out, nil
}
