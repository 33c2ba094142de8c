package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tabi/internal/models/response_models"
	"tabi/pkg/cache"
	"tabi/pkg/utils"
)

const serviceCurrency = "currency"

type CurrencyServiceInterface interface {
	Convert(ctx context.Context, amount float64, from, to string) (*response_models.CurrencyConversion, error)
}

type CurrencyService struct {
	rest  *restClient
	cache cache.Cache
	ttl   time.Duration
}

type exchangeRates struct {
	Result     string             `json:"result"`
	ErrorType  string             `json:"error-type"`
	Base       string             `json:"base_code"`
	LastUpdate string             `json:"time_last_update_utc"`
	Rates      map[string]float64 `json:"rates"`
}

// NewCurrencyService reads latest rates from an open.er-api.com compatible endpoint.
// Rates refresh daily upstream, so ttl is capped to an hour.
func NewCurrencyService(hc *http.Client, baseURL string, c cache.Cache, ttl time.Duration) CurrencyServiceInterface {
	if ttl <= 0 || ttl > time.Hour {
		ttl = time.Hour
	}
	return &CurrencyService{
		rest:  &restClient{service: serviceCurrency, base: strings.TrimRight(baseURL, "/"), hc: hc},
		cache: c,
		ttl:   ttl,
	}
}

func (s *CurrencyService) rates(ctx context.Context, base string) (*exchangeRates, error) {
	return cache.Remember(ctx, s.cache, "fx:"+base, s.ttl, func(ctx context.Context) (*exchangeRates, error) {
		var out exchangeRates
		if err := s.rest.do(ctx, http.MethodGet, "latest", "/"+base, nil, nil, nil, &out); err != nil {
			return nil, err
		}
		if out.Result != "" && out.Result != "success" {
			if out.ErrorType == "unsupported-code" {
				return nil, fmt.Errorf("%w: unknown currency %q", utils.ErrInvalidInput, base)
			}
			return nil, &APIError{Service: serviceCurrency, Endpoint: "latest", Message: out.ErrorType}
		}
		return &out, nil
	})
}

func (s *CurrencyService) Convert(ctx context.Context, amount float64, from, to string) (*response_models.CurrencyConversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if len(from) != 3 || len(to) != 3 {
		return nil, fmt.Errorf("%w: currencies must be ISO 4217 codes", utils.ErrInvalidInput)
	}

	res := &response_models.CurrencyConversion{Amount: amount, From: from, To: to, Rate: 1, Converted: amount}
	if from == to {
		return res, nil
	}
	r, err := s.rates(ctx, from)
	if err != nil {
		return nil, err
	}
	rate, ok := r.Rates[to]
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency %q", utils.ErrInvalidInput, to)
	}
	res.Rate = rate
	res.Converted = round2(amount * rate)
	res.AsOf = r.LastUpdate
	return res, nil
}
