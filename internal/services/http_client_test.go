package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tabi/pkg/utils"
)

type recordedCalls struct {
	mu    sync.Mutex
	calls []Call
}

func (r *recordedCalls) Record(_ context.Context, c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func fastClient(cfg ClientConfig) *http.Client {
	if cfg.RPS == 0 {
		cfg.RPS = 1000
	}
	hc := NewMeteredClient(cfg)
	hc.Transport.(*meteredTransport).backoff = func(int) time.Duration { return time.Millisecond }
	return hc
}

func TestMeteredClient_RetriesThenSuccess(t *testing.T) {
	var hits int32
	var bodies []string
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		if r.Header.Get("X-Goog-Api-Key") != "k" {
			t.Errorf("missing api key header")
		}
		if atomic.AddInt32(&hits, 1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	rec := &recordedCalls{}
	hc := fastClient(ClientConfig{Service: "google", Header: http.Header{"X-Goog-Api-Key": {"k"}}, Usage: rec})
	rc := &restClient{service: "google", base: ts.URL, hc: hc}

	var out struct{ OK bool }
	if err := rc.do(context.Background(), http.MethodPost, "test.endpoint", "/x", nil, nil, map[string]int{"a": 1}, &out); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !out.OK || hits != 3 {
		t.Fatalf("ok=%v hits=%d", out.OK, hits)
	}
	for _, b := range bodies {
		if b != `{"a":1}` {
			t.Fatalf("body not replayed on retry: %q", b)
		}
	}
	if len(rec.calls) != 3 || rec.calls[0].Status != 503 || rec.calls[2].Status != 200 {
		t.Fatalf("recorded calls: %+v", rec.calls)
	}
	if rec.calls[0].Endpoint != "test.endpoint" || rec.calls[0].Service != "google" {
		t.Fatalf("labels: %+v", rec.calls[0])
	}
}

func TestMeteredClient_GivesUp(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Quota exceeded"}}`))
	}))
	defer ts.Close()

	rc := &restClient{service: "google", base: ts.URL, hc: fastClient(ClientConfig{MaxRetries: 2}), parseErr: googleErrorMessage}
	err := rc.do(context.Background(), http.MethodGet, "e", "/", nil, nil, nil, nil)
	if !errors.Is(err, utils.ErrUpstreamRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if !strings.Contains(err.Error(), "Quota exceeded") {
		t.Fatalf("upstream message not surfaced: %v", err)
	}
	if hits != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestMeteredClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	rc := &restClient{service: "svc", base: ts.URL, hc: fastClient(ClientConfig{})}
	err := rc.do(context.Background(), http.MethodGet, "e", "/", nil, nil, nil, nil)
	if !errors.Is(err, utils.ErrUpstreamNotFound) || hits != 1 {
		t.Fatalf("err=%v hits=%d", err, hits)
	}
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if retryAfter(resp) != 0 {
		t.Fatal("absent header should be zero")
	}
	resp.Header.Set("Retry-After", "7")
	if got := retryAfter(resp); got != 7*time.Second {
		t.Fatalf("seconds: %s", got)
	}
	resp.Header.Set("Retry-After", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	if got := retryAfter(resp); got < 58*time.Minute {
		t.Fatalf("date: %s", got)
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{404, utils.ErrUpstreamNotFound},
		{429, utils.ErrUpstreamRateLimited},
		{401, utils.ErrUpstreamUnauthorized},
		{403, utils.ErrUpstreamUnauthorized},
		{400, utils.ErrUpstreamBadRequest},
		{502, utils.ErrUpstream},
		{0, utils.ErrUpstream},
	}
	for _, tc := range tests {
		err := &APIError{Service: "s", Endpoint: "e", Status: tc.status, Message: "m"}
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v", tc.status, tc.want)
		}
	}
}

func TestEstimateCost(t *testing.T) {
	if EstimateCost("google", "places.searchText", 200) != 0.032 {
		t.Fatal("searchText should be billed")
	}
	if EstimateCost("google", "places.searchText", 500) != 0 {
		t.Fatal("failed calls are free")
	}
	if EstimateCost("amadeus", "flights.offers", 200) != 0 {
		t.Fatal("unlisted endpoints are free")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
