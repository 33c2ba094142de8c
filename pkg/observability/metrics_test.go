package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tabi/pkg/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/plans", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("google", "places:searchText", 200, 30*time.Millisecond, 0.032)
	observability.ObserveTool("calculator", errors.New("boom"), time.Millisecond)
	observability.ObserveLLM("ollama", "gpt-oss:20b", nil, 120, 40)

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"tabi_http_requests_total",
		"tabi_external_cost_usd_total",
		`tabi_tool_calls_total{outcome="error",tool="calculator"}`,
		`tabi_llm_tokens_total{direction="input",provider="ollama"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
