package domain

import "time"

type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"
	VehicleStatusBooked      VehicleStatus = "BOOKED"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
)

type VehicleCategory string

const (
	VehicleCategoryBike VehicleCategory = "BIKE"
	VehicleCategoryCar  VehicleCategory = "CAR"
)

type Vehicle struct {
	ID                 int32           `json:"id"`
	ShopID             int32           `json:"shop_id"`
	Name               string          `json:"name"`
	RegistrationNumber string          `json:"registration_number"`
	Category           VehicleCategory `json:"category"`
	DailyPrice         int64           `json:"daily_price"`
	Status             VehicleStatus   `json:"status"`
	Damages            []Damage        `json:"damages"`
	LastOdometer       *int64          `json:"last_odometer,omitempty"`
	Archived           bool            `json:"archived"`
	CreatedOn          time.Time       `json:"created_on"`
	UpdatedOn          time.Time       `json:"updated_on"`
}

type DamageType string

const (
	DamageTypeScratch      DamageType = "SCRATCH"
	DamageTypeDent         DamageType = "DENT"
	DamageTypeBrokenMirror DamageType = "BROKEN_MIRROR"
	DamageTypeTyre         DamageType = "TYRE"
	DamageTypeMechanical   DamageType = "MECHANICAL"
	DamageTypeOther        DamageType = "OTHER"
)

func (t DamageType) Valid() bool {
	switch t {
	case DamageTypeScratch, DamageTypeDent, DamageTypeBrokenMirror,
		DamageTypeTyre, DamageTypeMechanical, DamageTypeOther:
		return true
	}
	return false
}

type DamageSeverity string

const (
	DamageSeverityMinor DamageSeverity = "MINOR"
	DamageSeverityMajor DamageSeverity = "MAJOR"
)

// Damage entries are only ever appended to a vehicle; they are never edited.
type Damage struct {
	ID         string         `json:"id"`
	VehicleID  int32          `json:"vehicle_id"`
	BookingID  *int32         `json:"booking_id,omitempty"`
	Type       DamageType     `json:"type"`
	Severity   DamageSeverity `json:"severity"`
	Notes      string         `json:"notes"`
	Photos     []string       `json:"photos"`
	RecordedBy int32          `json:"recorded_by"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// AvailabilityOverride blocks a vehicle for a single calendar date regardless of
// bookings (servicing, private use, ...).
type AvailabilityOverride struct {
	ShopID    int32     `json:"shop_id"`
	VehicleID int32     `json:"vehicle_id"`
	Date      string    `json:"date"` // yyyy-mm-dd in shop time
	Reason    string    `json:"reason"`
	CreatedBy int32     `json:"created_by"`
	CreatedOn time.Time `json:"created_on"`
}

// VehicleChange is a side effect of a booking transition on one vehicle. It is
// committed in the same unit of work as the booking. Empty fields are left as
// they are.
type VehicleChange struct {
	VehicleID int32
	Status    VehicleStatus
	Odometer  *int64
	Damages   []Damage
}
