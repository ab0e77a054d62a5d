// Package clock is the sole source of truth for "what calendar day is it".
// Dates are always computed from local wall-clock components in an explicit
// time zone; UTC truncation of an instant is never a calendar day.
package clock

import (
	"fmt"
	"time"

	"github.com/daybook-ai/daybook/internal/model"
)

// Clock supplies the current instant. Kept as an interface so services
// and the date-change watcher can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// DateIn returns the calendar date of t in loc as YYYY-MM-DD.
func DateIn(t time.Time, loc *time.Location) string {
	y, m, d := t.In(loc).Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// Today returns the current calendar date in loc.
func Today(c Clock, loc *time.Location) string {
	return DateIn(c.Now(), loc)
}

// Parse validates a YYYY-MM-DD date string.
func Parse(date string) (time.Time, error) {
	t, err := time.Parse(model.DateKey, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", model.ErrValidation, date)
	}
	return t, nil
}

// IsValid reports whether date is a well-formed YYYY-MM-DD string.
func IsValid(date string) bool {
	_, err := Parse(date)
	return err == nil
}

// AddDays shifts a date by n calendar days. Arithmetic happens on the
// parsed civil date, so time zones and DST cannot skew the result.
func AddDays(date string, n int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(model.DateKey), nil
}

// DaysBetween returns b minus a in whole calendar days.
func DaysBetween(a, b string) (int, error) {
	ta, err := Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// MonthBounds returns the first and last date of (month, year).
func MonthBounds(month time.Month, year int) (first, last string) {
	f := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	l := f.AddDate(0, 1, -1)
	return f.Format(model.DateKey), l.Format(model.DateKey)
}

// DaysInMonth returns the number of days in (month, year).
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
