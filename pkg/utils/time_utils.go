package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Japan Standard Time (+09:00). Travel dates are Japanese calendar dates.
var jstLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*3600)
}()

func NowUnixSeconds() int64 { return time.Now().Unix() }

// PadDate moves a YYYY-MM-DD date that already passed in Japan to its next
// occurrence: later this year if the month/day is still ahead, otherwise next
// year. Models often answer with dates from their training year. Feb 29 rolled
// into a common year becomes Feb 28.
func PadDate(s string, now time.Time) (string, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	local := now.In(jstLoc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if !d.Before(today) {
		return d.Format(DateLayout), nil
	}
	year := today.Year()
	if d.Month() < today.Month() || (d.Month() == today.Month() && d.Day() < today.Day()) {
		year++
	}
	day := d.Day()
	if d.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, d.Month(), day, 0, 0, 0, 0, time.UTC).Format(DateLayout), nil
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// NightsBetween returns the absolute number of nights between two YYYY-MM-DD dates.
func NightsBetween(checkIn, checkOut string) (int, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return 0, fmt.Errorf("%w: check-in %q", ErrInvalidInput, checkIn)
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return 0, fmt.Errorf("%w: check-out %q", ErrInvalidInput, checkOut)
	}
	n := int(out.Sub(in).Hours() / 24)
	if n < 0 {
		n = -n
	}
	return n, nil
}
