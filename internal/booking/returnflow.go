package booking

import (
	"fmt"
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/utils"
)

// ReturnSummary is the money side of a return.
type ReturnSummary struct {
	Rent        int64 `json:"rent"`
	Deposit     int64 `json:"deposit"`
	Total       int64 `json:"total"`
	Paid        int64 `json:"paid"`
	Settlement  int64 `json:"settlement"`
	Outstanding int64 `json:"outstanding"`
	Deduction   int64 `json:"deduction"`
	Refund      int64 `json:"refund"`
}

// CalculateReturn validates the deposit deduction and final settlement for b
// and works out the refund. Deduction must lie in [0, deposit] and settlement
// in [0, outstanding].
func CalculateReturn(b domain.Booking, deduction, settlement int64) (ReturnSummary, error) {
	if deduction < 0 {
		return ReturnSummary{}, domain.Invalid("deduction_amount", "must not be negative")
	}
	if deduction > b.DepositAmount {
		return ReturnSummary{}, domain.Invalid("deduction_amount", "%d exceeds the deposit of %d", deduction, b.DepositAmount)
	}
	outstanding := b.Outstanding()
	if settlement < 0 {
		return ReturnSummary{}, domain.Invalid("settlement_amount", "must not be negative")
	}
	if settlement > outstanding {
		return ReturnSummary{}, domain.Invalid("settlement_amount", "%d exceeds the outstanding %d", settlement, outstanding)
	}

	refund := b.DepositAmount - deduction
	if refund < 0 {
		refund = 0
	}
	return ReturnSummary{
		Rent:        b.RentAmount,
		Deposit:     b.DepositAmount,
		Total:       b.TotalAmount,
		Paid:        b.PaidAmount + settlement,
		Settlement:  settlement,
		Outstanding: outstanding - settlement,
		Deduction:   deduction,
		Refund:      refund,
	}, nil
}

// InvoiceNumber is INV-<year>-<booking number>, the year taken from the return
// time (or the end date if the booking has not been returned).
func InvoiceNumber(b domain.Booking) string {
	at := b.EndDate
	if b.ReturnedAt != nil {
		at = *b.ReturnedAt
	}
	return fmt.Sprintf("INV-%d-%04d", at.Year(), b.Number)
}

type InvoiceLine struct {
	VehicleID   int32  `json:"vehicle_id"`
	Description string `json:"description"`
	Days        int64  `json:"days"`
	DailyPrice  int64  `json:"daily_price"`
	Amount      int64  `json:"amount"`
}

// Invoice is the data handed to whatever renders or sends the invoice.
type Invoice struct {
	Number        string        `json:"number"`
	BookingID     int32         `json:"booking_id"`
	BookingNumber int32         `json:"booking_number"`
	Shop          string        `json:"shop"`
	Customer      string        `json:"customer"`
	CustomerPhone string        `json:"customer_phone"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	ReturnedAt    *time.Time    `json:"returned_at,omitempty"`
	Lines         []InvoiceLine `json:"lines"`
	Summary       ReturnSummary `json:"summary"`
	DamageNotes   string        `json:"damage_notes,omitempty"`
}

// BuildInvoice assembles the invoice of a completed booking that already has a
// number. Lines split the rent over vehicles by daily price; any rounding or
// manual rent adjustment lands on the last line.
func BuildInvoice(shop domain.Shop, b domain.Booking, customer domain.Customer, vehicles []domain.Vehicle) (Invoice, error) {
	if b.Status != domain.BookingStatusCompleted {
		return Invoice{}, &domain.TransitionError{Operation: "invoice", From: b.Label()}
	}
	if b.InvoiceNumber == "" {
		return Invoice{}, domain.Invalid("invoice_number", "invoice has not been generated")
	}

	days, err := utils.ChargeableDays(b.StartDate, b.EndDate)
	if err != nil {
		return Invoice{}, err
	}
	byID := make(map[int32]domain.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}
	lines := make([]InvoiceLine, 0, len(b.VehicleIDs))
	var sum int64
	for _, id := range b.VehicleIDs {
		v := byID[id]
		line := InvoiceLine{
			VehicleID:   id,
			Description: fmt.Sprintf("%s (%s)", v.Name, v.RegistrationNumber),
			Days:        days,
			DailyPrice:  v.DailyPrice,
			Amount:      v.DailyPrice * days,
		}
		sum += line.Amount
		lines = append(lines, line)
	}
	if n := len(lines); n > 0 && sum != b.RentAmount {
		lines[n-1].Amount += b.RentAmount - sum
	}

	return Invoice{
		Number:        b.InvoiceNumber,
		BookingID:     b.ID,
		BookingNumber: b.Number,
		Shop:          shop.Name,
		Customer:      customer.Name,
		CustomerPhone: customer.Phone,
		Start:         b.StartDate,
		End:           b.EndDate,
		ReturnedAt:    b.ReturnedAt,
		Lines:         lines,
		Summary: ReturnSummary{
			Rent:        b.RentAmount,
			Deposit:     b.DepositAmount,
			Total:       b.TotalAmount,
			Paid:        b.PaidAmount,
			Outstanding: b.Outstanding(),
			Deduction:   b.DepositDeduction,
			Refund:      b.RefundAmount,
		},
		DamageNotes: b.DamageNotes,
	}, nil
}
