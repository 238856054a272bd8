// Package dates computes calendar-local date boundaries used by the attendance queries.
//
// Every function works on the wall clock of the time value it receives, so callers
// control the timezone by passing a time already converted with In(loc). Dates are
// exchanged as "YYYY-MM-DD" strings.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the only accepted date representation.
const Layout = "2006-01-02"

// ErrRangeOrder is returned when a range ends before it starts.
var ErrRangeOrder = errors.New("end date is before start date")

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

// Now returns the current time in the clock's location (time.Local when unset).
func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}

// FixedClock always reports the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Format renders the calendar date of t in its own location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today is the local calendar date of now.
func Today(now time.Time) string {
	return Format(now)
}

// Parse validates a "YYYY-MM-DD" string and returns midnight UTC of that date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// Valid reports whether s is a well-formed date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// midnight returns the start of t's calendar day in t's location.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekDates returns the Monday-start week containing now, up to and including today.
func WeekDates(now time.Time) []string {
	today := midnight(now)
	// Sunday is the last day of the week, not the first.
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)

	out := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		if d.After(today) {
			break
		}
		out = append(out, Format(d))
	}
	return out
}

// MonthDates returns the first of the month through today.
func MonthDates(now time.Time) []string {
	today := midnight(now)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	out := make([]string, 0, today.Day())
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		out = append(out, Format(d))
	}
	return out
}

// CheckRange validates both bounds of an inclusive range.
func CheckRange(start, end string) error {
	s, err := Parse(start)
	if err != nil {
		return err
	}
	e, err := Parse(end)
	if err != nil {
		return err
	}
	if e.Before(s) {
		return ErrRangeOrder
	}
	return nil
}
