package services

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type endpointKey struct{}

// WithEndpoint labels outbound calls made with ctx for metrics and the usage ledger.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey{}, endpoint)
}

func endpointOf(r *http.Request) string {
	if v, ok := r.Context().Value(endpointKey{}).(string); ok && v != "" {
		return v
	}
	return strings.TrimPrefix(r.URL.Path, "/")
}

type ClientConfig struct {
	Service    string
	RPS        float64
	Timeout    time.Duration
	MaxRetries int
	// Header is added to every request, e.g. an API key.
	Header http.Header
	Usage  UsageRecorder
	Base   http.RoundTripper
}

// meteredTransport rate limits, retries and records every outbound request.
// Retries cover transport errors, 429 and 5xx, honouring Retry-After.
type meteredTransport struct {
	service    string
	base       http.RoundTripper
	limiter    *rate.Limiter
	header     http.Header
	maxRetries int
	usage      UsageRecorder
	backoff    func(attempt int) time.Duration
}

// NewMeteredClient returns an http.Client whose transport is shared by every
// request of one external service.
func NewMeteredClient(cfg ClientConfig) *http.Client {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Base == nil {
		cfg.Base = http.DefaultTransport
	}
	burst := int(cfg.RPS)
	if burst < 1 {
		burst = 1
	}
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &meteredTransport{
			service:    cfg.Service,
			base:       cfg.Base,
			limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), burst),
			header:     cfg.Header,
			maxRetries: cfg.MaxRetries,
			usage:      cfg.Usage,
			backoff:    backoff,
		},
	}
}

func (t *meteredTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointOf(req)

	retries := t.maxRetries
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		retries = 0
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		r := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}
		for k, vs := range t.header {
			for _, v := range vs {
				r.Header.Set(k, v)
			}
		}

		start := time.Now()
		resp, err := t.base.RoundTrip(r)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		if t.usage != nil {
			t.usage.Record(ctx, Call{Service: t.service, Endpoint: endpoint, Status: status, Duration: time.Since(start)})
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < retries && sleepCtx(ctx, t.backoff(attempt)) {
				continue
			}
			return nil, lastErr
		}

		if !retryable(resp.StatusCode) || attempt >= retries {
			return resp, nil
		}
		wait := retryAfter(resp)
		if wait == 0 {
			wait = t.backoff(attempt)
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		if !sleepCtx(ctx, wait) {
			return nil, ctx.Err()
		}
	}
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 500ms with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 500 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

// errorParser pulls the provider's message out of an error body.
type errorParser func(body []byte) string

// restClient is a small JSON client for the APIs without a generated Go SDK.
type restClient struct {
	service  string
	base     string
	hc       *http.Client
	parseErr errorParser
}

func (c *restClient) do(ctx context.Context, method, endpoint, path string, query url.Values, header http.Header, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(WithEndpoint(ctx, endpoint), method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Service: c.service, Endpoint: endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		msg := ""
		if c.parseErr != nil {
			msg = c.parseErr(b)
		}
		if msg == "" {
			msg = strings.TrimSpace(string(b))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Service: c.service, Endpoint: endpoint, Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Service: c.service, Endpoint: endpoint, Status: resp.StatusCode,
			Message: fmt.Sprintf("invalid response body: %v", err)}
	}
	return nil
}

// googleErrorMessage reads {"error": {"message": ...}}.
func googleErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		return e.Error.Message
	}
	return ""
}
