package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"rentalshop-backend/internal/domain"
)

const (
	MinutesPerDay = 24 * 60

	DateLayout      = "2006-01-02"
	LocalTimeLayout = "2006-01-02T15:04"
)

// MinutesFromMidnight returns the minute of the day of t, in [0, 1440), using
// the location t carries.
func MinutesFromMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DayFraction returns the position of t within its day as a value in [0, 1).
func DayFraction(t time.Time) float64 {
	return float64(MinutesFromMidnight(t)) / MinutesPerDay
}

func IsFullDayStart(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}

// IsFullDayEnd treats 23:59 and later as the end of the day. A booking ending
// at exactly midnight belongs to the previous day, not this one.
func IsFullDayEnd(t time.Time) bool {
	return t.Hour() == 23 && t.Minute() >= 59
}

func StartOfDay(t time.Time) time.Time {
	return now.With(t).BeginningOfDay()
}

func EndOfDay(t time.Time) time.Time {
	return now.With(t).EndOfDay()
}

func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Days returns count consecutive local midnights beginning with the day of
// from. Days are stepped with AddDate so DST changes keep midnight aligned.
func Days(from time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	first := StartOfDay(from)
	days := make([]time.Time, count)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// ParseTimestamp accepts RFC3339 or a zone-less "2006-01-02T15:04" interpreted
// in loc. The result is converted to loc and truncated to the minute.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", domain.ErrInvalidTimestamp)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc).Truncate(time.Minute), nil
	}
	t, err := time.ParseInLocation(LocalTimeLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, value)
	}
	return t, nil
}

// ParseDate parses a yyyy-mm-dd value to local midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a yyyy-mm-dd date", domain.ErrInvalidTimestamp, value)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
