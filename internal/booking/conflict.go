package booking

import (
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/utils"
)

// BlockList reports single-date blocks placed on a vehicle outside of bookings.
type BlockList interface {
	IsBlocked(vehicleID int32, date string) bool
}

// OverrideSet is a BlockList backed by availability override records.
type OverrideSet map[int32]map[string]bool

func NewOverrideSet(overrides []domain.AvailabilityOverride) OverrideSet {
	set := make(OverrideSet)
	for _, o := range overrides {
		if set[o.VehicleID] == nil {
			set[o.VehicleID] = make(map[string]bool)
		}
		set[o.VehicleID][o.Date] = true
	}
	return set
}

func (s OverrideSet) IsBlocked(vehicleID int32, date string) bool {
	return s[vehicleID][date]
}

// Overlaps is the half-open test on [aStart, aEnd) and [bStart, bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(aEnd.Compare(bStart) <= 0 || aStart.Compare(bEnd) >= 0)
}

// FindConflict returns the first booking that still holds one of vehicleIDs
// during [start, end), ignoring the booking with id excludeID. Cancelled,
// deleted and completed bookings never conflict.
func FindConflict(vehicleIDs []int32, start, end time.Time, excludeID int32, bookings []domain.Booking) *domain.OverlapError {
	for i := range bookings {
		b := &bookings[i]
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !b.HoldsVehicles() {
			continue
		}
		if !Overlaps(b.StartDate, b.EndDate, start, end) {
			continue
		}
		for _, vid := range vehicleIDs {
			if b.HasVehicle(vid) {
				return &domain.OverlapError{VehicleID: vid, BookingID: b.ID}
			}
		}
	}
	return nil
}

func HasConflict(vehicleIDs []int32, start, end time.Time, excludeID int32, bookings []domain.Booking) bool {
	return FindConflict(vehicleIDs, start, end, excludeID, bookings) != nil
}

// IsVehicleAvailable reports whether v can be handed out on the calendar date
// of day: not in maintenance, not blocked for that date, and not held by any
// booking during the day.
func IsVehicleAvailable(v domain.Vehicle, day time.Time, bookings []domain.Booking, blocks BlockList) bool {
	if v.Archived || v.Status == domain.VehicleStatusMaintenance {
		return false
	}
	if blocks != nil && blocks.IsBlocked(v.ID, utils.FormatDate(day)) {
		return false
	}
	return !HasConflict([]int32{v.ID}, utils.StartOfDay(day), utils.EndOfDay(day), 0, bookings)
}

// AvailableVehicles filters vehicles down to those available on day.
func AvailableVehicles(vehicles []domain.Vehicle, day time.Time, bookings []domain.Booking, blocks BlockList) []domain.Vehicle {
	var out []domain.Vehicle
	for _, v := range vehicles {
		if IsVehicleAvailable(v, day, bookings, blocks) {
			out = append(out, v)
		}
	}
	return out
}
