package utils

import (
	"testing"

	"rentalshop-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestChargeableDays(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int64
	}{
		{"Exactly one day", "2024-01-15T10:00", "2024-01-16T10:00", 1},
		{"Few hours counts as a day", "2024-01-15T10:00", "2024-01-15T13:00", 1},
		{"One minute over rolls to next day", "2024-01-15T10:00", "2024-01-16T10:01", 2},
		{"Week", "2024-01-15T00:00", "2024-01-22T00:00", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := ChargeableDays(at(tt.start), at(tt.end))
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, days)
		})
	}

	t.Run("End before start", func(t *testing.T) {
		_, err := ChargeableDays(at("2024-01-16T10:00"), at("2024-01-15T10:00"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "end date must be after start date")
	})
}

func TestQuoteRent(t *testing.T) {
	vehicles := []domain.Vehicle{
		{ID: 1, DailyPrice: 500},
		{ID: 2, DailyPrice: 1200},
	}

	q, err := QuoteRent(at("2024-01-01T09:00"), at("2024-01-03T12:00"), vehicles)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), q.Days)
	assert.Len(t, q.Lines, 2)
	assert.Equal(t, int64(1500), q.Lines[0].Amount)
	assert.Equal(t, int64(3600), q.Lines[1].Amount)
	assert.Equal(t, int64(5100), q.Amount)
}
