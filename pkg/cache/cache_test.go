package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
}

func TestMemory_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "k", place{Name: "Kyoto", Lat: 35.01}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var got place
	ok, err := m.Get(ctx, "k", &got)
	if err != nil || !ok || got.Name != "Kyoto" {
		t.Fatalf("get: ok=%v err=%v got=%+v", ok, err, got)
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := m.Get(ctx, "k", &got); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestMemory_ExpiredGetKeepsConcurrentSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var refresh bool
	// The expiry check runs outside the lock, so a writer can slip in right there.
	m.now = func() time.Time {
		if refresh {
			refresh = false
			_ = m.Set(ctx, "k", place{Name: "Osaka"}, time.Hour)
		}
		return now
	}

	_ = m.Set(ctx, "k", place{Name: "Kyoto"}, time.Minute)
	now = now.Add(2 * time.Minute)
	refresh = true

	var got place
	if ok, _ := m.Get(ctx, "k", &got); ok {
		t.Fatalf("stale entry returned: %+v", got)
	}
	if ok, err := m.Get(ctx, "k", &got); err != nil || !ok || got.Name != "Osaka" {
		t.Fatalf("fresh entry was dropped: ok=%v err=%v got=%+v", ok, err, got)
	}
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "a", 1, -time.Second)
	_ = m.Set(ctx, "b", 2, time.Hour)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("swept %d", n)
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0)
	defer r.Close()
	ctx := context.Background()

	if err := r.Set(ctx, "geocode:osaka", place{Name: "Osaka"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var got place
	ok, err := r.Get(ctx, "geocode:osaka", &got)
	if err != nil || !ok || got.Name != "Osaka" {
		t.Fatalf("get: ok=%v err=%v got=%+v", ok, err, got)
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := r.Get(ctx, "geocode:osaka", &got); ok {
		t.Fatalf("expected expiry")
	}

	_ = r.Set(ctx, "x", 1, time.Minute)
	_ = r.Del(ctx, "x")
	if mr.Exists("x") {
		t.Fatalf("expected delete")
	}
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	calls := 0
	fn := func(context.Context) (place, error) {
		calls++
		return place{Name: "Nara"}, nil
	}
	for i := 0; i < 3; i++ {
		got, err := Remember(ctx, m, "nara", time.Minute, fn)
		if err != nil || got.Name != "Nara" {
			t.Fatalf("remember: %v %+v", err, got)
		}
	}
	if calls != 1 {
		t.Fatalf("fn called %d times", calls)
	}

	_, err := Remember(ctx, m, "fail", time.Minute, func(context.Context) (place, error) {
		return place{}, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if ok, _ := m.Get(ctx, "fail", &place{}); ok {
		t.Fatalf("errors must not be cached")
	}
}
