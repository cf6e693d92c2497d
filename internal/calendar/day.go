// Package calendar — календарные дни партиций и постраничная выдача.
package calendar

import (
	"fmt"
	"time"

	"github.com/Leganyst/appointment-queue/internal/model"
)

// ParseDay разбирает "YYYY-MM-DD" как полночь в loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(model.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDay — обратное к ParseDay.
func FormatDay(t time.Time) string {
	return t.Format(model.DateLayout)
}

// DateOnly отбрасывает время, оставляя полночь того же дня в loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Today — текущий день партиции в loc.
func Today(now time.Time, loc *time.Location) string {
	return FormatDay(DateOnly(now, loc))
}

// CheckBookingWindow проверяет, что день не в прошлом и не дальше advanceDays от сегодня.
func CheckBookingWindow(day string, now time.Time, loc *time.Location, advanceDays int) error {
	d, err := ParseDay(day, loc)
	if err != nil {
		return err
	}
	today := DateOnly(now, loc)
	if d.Before(today) {
		return fmt.Errorf("date %s is in the past", day)
	}
	if advanceDays > 0 {
		last := today.AddDate(0, 0, advanceDays)
		if d.After(last) {
			return fmt.Errorf("date %s is more than %d days ahead", day, advanceDays)
		}
	}
	return nil
}
