package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tabi", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "external_requests_total", Help: "Outbound API requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tabi", Name: "external_request_duration_seconds",
			Help:    "Outbound API request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	ExternalCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "external_cost_usd_total", Help: "Estimated list-price cost of outbound calls."},
		[]string{"service"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	ToolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "tool_calls_total", Help: "Agent tool invocations."},
		[]string{"tool", "outcome"},
	)
	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tabi", Name: "tool_duration_seconds",
			Help:    "Agent tool duration seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"tool"},
	)
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "llm_requests_total", Help: "LLM chat requests."},
		[]string{"provider", "model", "outcome"},
	)
	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "llm_tokens_total", Help: "LLM tokens consumed."},
		[]string{"provider", "direction"}, // direction: input|output
	)
	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "tabi", Name: "jobs_in_flight", Help: "Background jobs currently running."},
	)
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tabi", Name: "jobs_total", Help: "Background jobs by outcome."},
		[]string{"kind", "outcome"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency,
		ExternalRequests, ExternalLatency, ExternalCost,
		CacheEvents,
		ToolCalls, ToolLatency,
		LLMRequests, LLMTokens,
		JobsInFlight, JobsTotal,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration, costUSD float64) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
	if costUSD > 0 {
		ExternalCost.WithLabelValues(service).Add(costUSD)
	}
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveTool(tool string, err error, dur time.Duration) {
	ToolCalls.WithLabelValues(tool, outcome(err)).Inc()
	ToolLatency.WithLabelValues(tool).Observe(dur.Seconds())
}

func ObserveLLM(provider, model string, err error, inputTokens, outputTokens int) {
	LLMRequests.WithLabelValues(provider, model, outcome(err)).Inc()
	if inputTokens > 0 {
		LLMTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

func ObserveJob(kind string, err error) {
	JobsTotal.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
