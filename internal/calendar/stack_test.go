package calendar

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignStacks(t *testing.T) {
	b := NewBuilder(DefaultMinWidthPct, DefaultMaxVisible)
	days := utils.Days(ts("2024-01-01T00:00"), 1)

	t.Run("Overlapping get separate rows", func(t *testing.T) {
		layout := b.Build(fleet, []domain.Booking{
			booking(1, 1, "2024-01-01T09:00", "2024-01-01T11:00"),
			booking(2, 1, "2024-01-01T10:00", "2024-01-01T12:00"),
		}, days)
		bucket := layout.Bucket(1, 0)
		require.Len(t, bucket, 2)
		assert.Equal(t, 0, bucket[0].Stack)
		assert.Equal(t, 1, bucket[1].Stack)
	})

	t.Run("Touching segments share a row", func(t *testing.T) {
		layout := b.Build(fleet, []domain.Booking{
			booking(1, 1, "2024-01-01T09:00", "2024-01-01T11:00"),
			booking(2, 1, "2024-01-01T11:00", "2024-01-01T12:00"),
		}, days)
		bucket := layout.Bucket(1, 0)
		assert.Equal(t, 0, bucket[0].Stack)
		assert.Equal(t, 0, bucket[1].Stack)
	})

	t.Run("Lowest free row is reused", func(t *testing.T) {
		layout := b.Build(fleet, []domain.Booking{
			booking(1, 1, "2024-01-01T08:00", "2024-01-01T10:00"),
			booking(2, 1, "2024-01-01T09:00", "2024-01-01T18:00"),
			booking(3, 1, "2024-01-01T11:00", "2024-01-01T12:00"),
		}, days)
		bucket := layout.Bucket(1, 0)
		assert.Equal(t, []int{0, 1, 0}, []int{bucket[0].Stack, bucket[1].Stack, bucket[2].Stack})
	})

	t.Run("Rows beyond the cap are hidden", func(t *testing.T) {
		var bookings []domain.Booking
		for i := int32(1); i <= 5; i++ {
			bookings = append(bookings, booking(i, 1, "2024-01-01T09:00", "2024-01-01T12:00"))
		}
		layout := b.Build(fleet, bookings, days)
		assert.Equal(t, 2, layout.HiddenCount(1, 0))
		assert.Equal(t, 0, layout.HiddenCount(2, 0))
		assert.False(t, layout.Bucket(1, 0)[2].Hidden)
		assert.True(t, layout.Bucket(1, 0)[3].Hidden)
	})
}

func TestAssignStacks_NoSharedRowOnOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := NewBuilder(DefaultMinWidthPct, DefaultMaxVisible)
	days := utils.Days(ts("2024-01-01T00:00"), 3)
	base := ts("2024-01-01T00:00")

	for round := 0; round < 50; round++ {
		var bookings []domain.Booking
		for i := 0; i < 12; i++ {
			start := base.Add(time.Duration(rng.Intn(3*24*60)) * time.Minute)
			end := start.Add(time.Duration(15+rng.Intn(24*60)) * time.Minute)
			bookings = append(bookings, domain.Booking{
				ID:         int32(i + 1),
				VehicleIDs: []int32{int32(1 + rng.Intn(2))},
				StartDate:  start,
				EndDate:    end,
				Status:     domain.BookingStatusBooked,
			})
		}

		layout := b.Build(fleet, bookings, days)
		for vid, byDay := range layout.Index {
			for di, bucket := range byDay {
				for i := range bucket {
					for j := i + 1; j < len(bucket); j++ {
						if overlaps(bucket[i], bucket[j]) {
							assert.NotEqual(t, bucket[i].Stack, bucket[j].Stack,
								fmt.Sprintf("round %d vehicle %d day %d", round, vid, di))
						}
					}
				}
			}
		}
	}
}
