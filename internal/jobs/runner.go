// Package jobs runs background work (plan generation, document ingestion)
// outside of HTTP requests.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tabi/pkg/observability"
)

var (
	ErrClosed   = errors.New("jobs: runner is shut down")
	ErrDropped  = errors.New("jobs: dropped before start")
	ErrPanicked = errors.New("jobs: job panicked")
)

const abortTimeout = 5 * time.Second

// Runner executes at most workers jobs at once. Jobs run on a context detached
// from the submitter, bounded by the runner's timeout and cancelled only when
// Shutdown gives up waiting.
type Runner struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	base    context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRunner(workers int, timeout time.Duration) *Runner {
	if workers <= 0 {
		workers = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Submit queues fn and returns immediately. onAbort, when set, runs if fn
// panics or is dropped by Shutdown before starting, so the caller can record
// the failure on the job's subject. It gets its own short-lived context.
func (r *Runner) Submit(kind string, fn func(ctx context.Context) error, onAbort func(ctx context.Context, err error)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if err := r.sem.Acquire(r.base, 1); err != nil {
			log.Warn().Str("job", kind).Msg("job dropped before start")
			observability.ObserveJob(kind, err)
			r.abort(kind, onAbort, ErrDropped)
			return
		}
		defer r.sem.Release(1)

		err := r.run(kind, fn)
		observability.ObserveJob(kind, err)
		if err != nil {
			log.Error().Err(err).Str("job", kind).Msg("job failed")
		}
		if errors.Is(err, ErrPanicked) {
			r.abort(kind, onAbort, err)
		}
	}()
	return nil
}

func (r *Runner) abort(kind string, onAbort func(ctx context.Context, err error), cause error) {
	if onAbort == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("job", kind).Msgf("abort hook panicked: %v", p)
		}
	}()
	onAbort(ctx, cause)
}

func (r *Runner) run(kind string, fn func(ctx context.Context) error) (err error) {
	ctx := r.base
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	observability.JobsInFlight.Inc()
	start := time.Now()
	defer func() {
		observability.JobsInFlight.Dec()
		if p := recover(); p != nil {
			log.Error().Str("job", kind).Str("stack", string(debug.Stack())).Msgf("job panicked: %v", p)
			err = fmt.Errorf("%w: %s: %v", ErrPanicked, kind, p)
		}
		log.Debug().Str("job", kind).Dur("took", time.Since(start)).Msg("job finished")
	}()

	return fn(ctx)
}

// Shutdown stops accepting jobs and waits for running ones. When ctx ends
// first the remaining jobs are cancelled and ctx's error is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
