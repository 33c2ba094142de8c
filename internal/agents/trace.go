package agents

import (
	"context"
	"sync"

	"tabi/pkg/llm"
)

// Step is one tool call made during a run.
type Step struct {
	Agent      string `json:"agent"`
	Tool       string `json:"tool"`
	Arguments  string `json:"arguments"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Trace collects the steps and token usage of every agent run sharing a context,
// including coworkers called through delegate tools.
type Trace struct {
	mu    sync.Mutex
	steps []Step
	usage llm.Usage
}

type traceKey struct{}

func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func traceFrom(ctx context.Context) *Trace {
	t, _ := ctx.Value(traceKey{}).(*Trace)
	return t
}

func (t *Trace) addStep(s Step) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.steps = append(t.steps, s)
	t.mu.Unlock()
}

func (t *Trace) addUsage(u llm.Usage) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.usage.Add(u)
	t.mu.Unlock()
}

func (t *Trace) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Step(nil), t.steps...)
}

func (t *Trace) Usage() llm.Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}
