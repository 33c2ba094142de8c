package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPadDate(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		in, want string
	}{
		{"2025-07-01", "2025-07-01"}, // future stays
		{"2025-06-15", "2025-06-15"}, // today stays
		{"2023-08-20", "2025-08-20"}, // later this year
		{"2023-03-01", "2026-03-01"}, // already passed this year
		{"2024-06-14", "2026-06-14"}, // yesterday last year
	}
	for _, c := range cases {
		got, err := PadDate(c.in, now)
		if err != nil {
			t.Fatalf("PadDate(%s): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("PadDate(%s) = %s, want %s", c.in, got, c.want)
		}
	}
	if _, err := PadDate("15/06/2025", now); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPadDate_LeapDay(t *testing.T) {
	cases := []struct {
		now      time.Time
		in, want string
	}{
		{time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), "2024-02-29", "2026-02-28"},
		{time.Date(2027, time.June, 15, 0, 0, 0, 0, time.UTC), "2024-02-29", "2028-02-29"},
		{time.Date(2028, time.January, 10, 0, 0, 0, 0, time.UTC), "2024-02-29", "2028-02-29"},
	}
	for _, c := range cases {
		if got, err := PadDate(c.in, c.now); err != nil || got != c.want {
			t.Fatalf("PadDate(%s) at %s = %s %v, want %s", c.in, c.now.Format(DateLayout), got, err, c.want)
		}
	}
	if _, err := PadDate("2025-02-29", time.Now()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("invalid leap day should be rejected, got %v", err)
	}
}

func TestPadDate_UsesJapaneseCalendarDay(t *testing.T) {
	// 20:00 UTC on Oct 19 is already Oct 20 in Tokyo.
	now := time.Date(2026, time.October, 19, 20, 0, 0, 0, time.UTC)
	got, err := PadDate("2026-10-19", now)
	if err != nil || got != "2027-10-19" {
		t.Fatalf("got %s %v", got, err)
	}
	if got, _ := PadDate("2026-10-20", now); got != "2026-10-20" {
		t.Fatalf("today in Tokyo should stay, got %s", got)
	}
}

func TestNightsBetween(t *testing.T) {
	n, err := NightsBetween("2025-04-01", "2025-04-05")
	if err != nil || n != 4 {
		t.Fatalf("got %d %v", n, err)
	}
	n, _ = NightsBetween("2025-04-05", "2025-04-01")
	if n != 4 {
		t.Fatalf("reversed dates should be absolute, got %d", n)
	}
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<h1>Kyoto &amp; Nara</h1>\n<p>in <b>spring</b></p><script>x()</script>")
	if got != "Kyoto & Nara in spring" {
		t.Fatalf("got %q", got)
	}
	if got := StripHTML("plain   title"); got != "plain title" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Day 1\n\n- Tokyo\n- Hakone")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<h1>Day 1</h1>") || !strings.Contains(out, "<li>Hakone</li>") {
		t.Fatalf("unexpected html: %s", out)
	}
}

func TestCreateAndValidateToken(t *testing.T) {
	ConfigureJWT("test-secret", time.Minute)
	id := uuid.New()

	token, claims, err := CreateToken(id, "user")
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
	got, err := ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != id.String() || got.Role != "user" {
		t.Fatalf("unexpected claims: %+v", got)
	}
	if _, err := ValidateToken(token + "x"); err == nil {
		t.Fatalf("tampered token should fail")
	}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if ComparePasswords(h, "s3cret-pass") != nil {
		t.Fatalf("password should match")
	}
	if ComparePasswords(h, "wrong") == nil {
		t.Fatalf("wrong password should not match")
	}
}
