package domain

import "time"

type PaymentKind string

const (
	PaymentKindAdvance    PaymentKind = "ADVANCE"
	PaymentKindFull       PaymentKind = "FULL"
	PaymentKindSettlement PaymentKind = "SETTLEMENT"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodUPI  PaymentMethod = "UPI"
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodBank PaymentMethod = "BANK"
)

// Payment records money received against a booking. Amounts are in the shop's
// currency minor-less units (whole rupees, euros, ...).
type Payment struct {
	ID         int32         `json:"id"`
	ShopID     int32         `json:"shop_id"`
	BookingID  int32         `json:"booking_id"`
	Amount     int64         `json:"amount"`
	Kind       PaymentKind   `json:"kind"`
	Method     PaymentMethod `json:"method"`
	RecordedBy int32         `json:"recorded_by"`
	RecordedAt time.Time     `json:"recorded_at"`
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodBank:
		return true
	}
	return false
}
