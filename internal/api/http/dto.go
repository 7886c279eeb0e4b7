package http

import (
	"rentalshop-backend/internal/calendar"
	"rentalshop-backend/internal/domain"
)

type CustomerRequest struct {
	Name          string `json:"name" validate:"required,max=120"`
	Phone         string `json:"phone" validate:"omitempty,max=20"`
	IDProofType   string `json:"id_proof_type" validate:"omitempty,max=40"`
	IDProofNumber string `json:"id_proof_number" validate:"omitempty,max=60"`
	Verification  string `json:"verification" validate:"omitempty,oneof=PENDING VERIFIED REJECTED"`
}

func (c CustomerRequest) toDomain(shopID int32) *domain.Customer {
	return &domain.Customer{
		ShopID:        shopID,
		Name:          c.Name,
		Phone:         c.Phone,
		IDProofType:   c.IDProofType,
		IDProofNumber: c.IDProofNumber,
		Verification:  domain.VerificationStatus(c.Verification),
	}
}

type QuoteRequest struct {
	VehicleIDs []int32 `json:"vehicle_ids" validate:"required,min=1,dive,gt=0"`
	StartDate  string  `json:"start_date" validate:"required"`
	EndDate    string  `json:"end_date" validate:"required"`
}

type CreateBookingRequest struct {
	VehicleIDs    []int32          `json:"vehicle_ids" validate:"required,min=1,dive,gt=0"`
	CustomerID    int32            `json:"customer_id" validate:"omitempty,gt=0"`
	Customer      *CustomerRequest `json:"customer" validate:"omitempty"`
	StartDate     string           `json:"start_date" validate:"required"`
	EndDate       string           `json:"end_date" validate:"required"`
	RentAmount    *int64           `json:"rent_amount" validate:"omitempty,gte=0"`
	DepositAmount int64            `json:"deposit_amount" validate:"gte=0"`
	Notes         string           `json:"notes" validate:"max=1000"`
	AllowBackdate bool             `json:"allow_backdate"`
}

type UpdateBookingRequest struct {
	VehicleIDs    []int32 `json:"vehicle_ids" validate:"required,min=1,dive,gt=0"`
	StartDate     string  `json:"start_date" validate:"required"`
	EndDate       string  `json:"end_date" validate:"required"`
	RentAmount    int64   `json:"rent_amount" validate:"gte=0"`
	DepositAmount int64   `json:"deposit_amount" validate:"gte=0"`
	Notes         string  `json:"notes" validate:"max=1000"`
	AllowBackdate bool    `json:"allow_backdate"`
}

type PaymentRequest struct {
	Amount int64  `json:"amount" validate:"gt=0"`
	Method string `json:"method" validate:"required,oneof=CASH UPI CARD BANK"`
}

type TakeRequest struct {
	OpeningOdometer *int64 `json:"opening_odometer" validate:"required,gte=0"`
}

type DamageRequest struct {
	VehicleID int32    `json:"vehicle_id" validate:"omitempty,gt=0"`
	Type      string   `json:"type" validate:"required,oneof=SCRATCH DENT BROKEN_MIRROR TYRE MECHANICAL OTHER"`
	Severity  string   `json:"severity" validate:"omitempty,oneof=MINOR MAJOR"`
	Notes     string   `json:"notes" validate:"max=500"`
	Photos    []string `json:"photos" validate:"max=10,dive,max=500"`
}

func (d DamageRequest) toDomain() domain.Damage {
	return domain.Damage{
		VehicleID: d.VehicleID,
		Type:      domain.DamageType(d.Type),
		Severity:  domain.DamageSeverity(d.Severity),
		Notes:     d.Notes,
		Photos:    d.Photos,
	}
}

type ReturnRequest struct {
	ClosingOdometer  *int64          `json:"closing_odometer" validate:"required,gte=0"`
	Damages          []DamageRequest `json:"damages" validate:"dive"`
	DeductionAmount  int64           `json:"deduction_amount" validate:"gte=0"`
	DamageNotes      string          `json:"damage_notes" validate:"max=1000"`
	SettlementAmount int64           `json:"settlement_amount" validate:"gte=0"`
	SettlementMethod string          `json:"settlement_method" validate:"omitempty,oneof=CASH UPI CARD BANK"`
	DeferInvoice     bool            `json:"defer_invoice"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type VehicleRequest struct {
	Name               string `json:"name" validate:"required,max=120"`
	RegistrationNumber string `json:"registration_number" validate:"required,max=20"`
	Category           string `json:"category" validate:"required,oneof=BIKE CAR"`
	DailyPrice         int64  `json:"daily_price" validate:"gte=0"`
	LastOdometer       *int64 `json:"last_odometer" validate:"omitempty,gte=0"`
}

func (v VehicleRequest) toDomain(shopID int32) *domain.Vehicle {
	return &domain.Vehicle{
		ShopID:             shopID,
		Name:               v.Name,
		RegistrationNumber: v.RegistrationNumber,
		Category:           domain.VehicleCategory(v.Category),
		DailyPrice:         v.DailyPrice,
		LastOdometer:       v.LastOdometer,
	}
}

type MaintenanceRequest struct {
	On bool `json:"on"`
}

type BlockRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"max=200"`
}

// CalendarDay is one cell of the calendar grid: the visible segments plus the
// number hidden behind the "+N" marker.
type CalendarDay struct {
	Date     string              `json:"date"`
	Segments []*calendar.Segment `json:"segments"`
	Hidden   int                 `json:"hidden"`
}

type CalendarRow struct {
	Vehicle domain.Vehicle `json:"vehicle"`
	Days    []CalendarDay  `json:"days"`
}

type CalendarResponse struct {
	Days []string      `json:"days"`
	Rows []CalendarRow `json:"rows"`
}
