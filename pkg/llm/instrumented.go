package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tabi/pkg/observability"
)

type instrumented struct {
	inner Client
	retry RetryConfig
}

func (c *instrumented) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	start := time.Now()
	resp, err := Retry(ctx, c.retry, func(ctx context.Context, attempt int) (*Response, error) {
		r, err := c.inner.Chat(ctx, req)
		if err != nil && attempt < c.retry.MaxRetries && IsRetryable(err) {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("provider", string(c.inner.Provider())).Msg("llm call failed, retrying")
		}
		return r, err
	})

	var in, out int
	if resp != nil {
		in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
	}
	observability.ObserveLLM(string(c.inner.Provider()), c.inner.Model(), err, in, out)
	log.Debug().
		Str("provider", string(c.inner.Provider())).
		Str("model", c.inner.Model()).
		Int("messages", len(req.Messages)).
		Int("tools", len(req.Tools)).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("llm chat")
	return resp, err
}

func (c *instrumented) Provider() Provider { return c.inner.Provider() }
func (c *instrumented) Model() string      { return c.inner.Model() }

type retryingEmbedder struct {
	inner Embedder
	retry RetryConfig
}

func (e *retryingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return Retry(ctx, e.retry, func(ctx context.Context, _ int) ([][]float32, error) {
		return e.inner.Embed(ctx, texts)
	})
}
