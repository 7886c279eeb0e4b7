package utils

import (
	"testing"
	"time"

	"rentalshop-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(value string) time.Time {
	t, err := time.ParseInLocation(LocalTimeLayout, value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMinutesFromMidnight(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"2024-01-01T00:00", 0},
		{"2024-01-01T00:01", 1},
		{"2024-01-01T10:30", 630},
		{"2024-01-01T18:00", 1080},
		{"2024-01-01T23:59", 1439},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, MinutesFromMidnight(at(tt.value)))
		})
	}
}

func TestDayFraction(t *testing.T) {
	assert.Equal(t, 0.0, DayFraction(at("2024-01-01T00:00")))
	assert.Equal(t, 0.25, DayFraction(at("2024-01-01T06:00")))
	assert.Equal(t, 0.75, DayFraction(at("2024-01-01T18:00")))
	assert.Less(t, DayFraction(at("2024-01-01T23:59")), 1.0)
}

func TestFullDayBoundaries(t *testing.T) {
	t.Run("Start", func(t *testing.T) {
		assert.True(t, IsFullDayStart(at("2024-01-01T00:00")))
		assert.False(t, IsFullDayStart(at("2024-01-01T00:01")))
	})

	t.Run("End", func(t *testing.T) {
		assert.True(t, IsFullDayEnd(at("2024-01-01T23:59")))
		assert.False(t, IsFullDayEnd(at("2024-01-01T23:58")))
		// midnight is the start of the next day, not the end of this one
		assert.False(t, IsFullDayEnd(at("2024-01-02T00:00")))
	})
}

func TestDayBounds(t *testing.T) {
	ts := at("2024-03-10T14:25")
	assert.Equal(t, at("2024-03-10T00:00"), StartOfDay(ts))

	end := EndOfDay(ts)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.True(t, SameDate(ts, end))
}

func TestDays(t *testing.T) {
	t.Run("Consecutive midnights", func(t *testing.T) {
		days := Days(at("2024-02-28T15:00"), 3)
		require.Len(t, days, 3)
		assert.Equal(t, at("2024-02-28T00:00"), days[0])
		assert.Equal(t, at("2024-02-29T00:00"), days[1])
		assert.Equal(t, at("2024-03-01T00:00"), days[2])
	})

	t.Run("DST change keeps midnight", func(t *testing.T) {
		loc, err := time.LoadLocation("Europe/Berlin")
		if err != nil {
			t.Skip("tzdata not available")
		}
		days := Days(time.Date(2024, 3, 30, 12, 0, 0, 0, loc), 3)
		for _, d := range days {
			assert.Equal(t, 0, d.Hour())
		}
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, Days(at("2024-01-01T00:00"), 0))
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Run("Local layout", func(t *testing.T) {
		ts, err := ParseTimestamp("2024-01-01T10:00", time.UTC)
		assert.NoError(t, err)
		assert.Equal(t, at("2024-01-01T10:00"), ts)
	})

	t.Run("RFC3339 converted and truncated", func(t *testing.T) {
		ts, err := ParseTimestamp("2024-01-01T10:00:42+02:00", time.UTC)
		assert.NoError(t, err)
		assert.Equal(t, at("2024-01-01T08:00"), ts)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseTimestamp("yesterday", time.UTC)
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)

		_, err = ParseTimestamp("", time.UTC)
		assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15", time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-15", FormatDate(d))

	_, err = ParseDate("2024/01/15", time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
}
