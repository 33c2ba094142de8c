package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_BoundsConcurrency(t *testing.T) {
	r := NewRunner(2, time.Second)
	var running, peak int32
	for i := 0; i < 6; i++ {
		if err := r.Submit("test", func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Fatalf("peak concurrency %d > 2", peak)
	}
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := NewRunner(1, 0)
	var ran atomic.Bool
	_ = r.Submit("boom", func(context.Context) error { panic("kaboom") }, nil)
	_ = r.Submit("after", func(context.Context) error { ran.Store(true); return nil }, nil)
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ran.Load() {
		t.Fatal("job after a panic did not run")
	}
}

func TestRunner_PanicAbortsSubject(t *testing.T) {
	r := NewRunner(1, 0)
	var (
		mu      sync.Mutex
		aborted = map[string]error{}
	)
	onAbort := func(name string) func(context.Context, error) {
		return func(ctx context.Context, err error) {
			if ctx.Err() != nil {
				t.Errorf("%s: abort context already done", name)
			}
			mu.Lock()
			aborted[name] = err
			mu.Unlock()
		}
	}
	_ = r.Submit("plan", func(context.Context) error { panic("nil map") }, onAbort("plan-1"))
	_ = r.Submit("plan", func(context.Context) error { return errors.New("model offline") }, onAbort("plan-2"))
	_ = r.Submit("plan", func(context.Context) error { return nil }, onAbort("plan-3"))
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !errors.Is(aborted["plan-1"], ErrPanicked) || !strings.Contains(aborted["plan-1"].Error(), "nil map") {
		t.Fatalf("panicking job: %v", aborted["plan-1"])
	}
	if len(aborted) != 1 {
		t.Fatalf("only the panicking job should abort, got %v", aborted)
	}
}

func TestRunner_ShutdownAbortsQueuedJobs(t *testing.T) {
	r := NewRunner(1, 0)
	started := make(chan struct{})
	_ = r.Submit("stuck", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	<-started

	var (
		ran   atomic.Bool
		cause error
	)
	_ = r.Submit("queued", func(context.Context) error { ran.Store(true); return nil }, func(_ context.Context, err error) { cause = err })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = r.Shutdown(ctx)

	if ran.Load() {
		t.Fatal("queued job should not run after shutdown gave up")
	}
	if !errors.Is(cause, ErrDropped) {
		t.Fatalf("expected ErrDropped, got %v", cause)
	}
}

func TestRunner_TimeoutAppliesToJobs(t *testing.T) {
	r := NewRunner(1, 10*time.Millisecond)
	errc := make(chan error, 1)
	_ = r.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		errc <- ctx.Err()
		return ctx.Err()
	}, nil)
	select {
	case err := <-errc:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled by its timeout")
	}
	_ = r.Shutdown(context.Background())
}

func TestRunner_ShutdownRejectsAndCancels(t *testing.T) {
	r := NewRunner(1, 0)
	started := make(chan struct{})
	_ = r.Submit("stuck", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline from shutdown, got %v", err)
	}
	if err := r.Submit("late", func(context.Context) error { return nil }, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
