package domain

import "time"

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusDeleted   BookingStatus = "DELETED"

	// BookingStatusAdvancePaid is never stored. It is the label for a Confirmed
	// booking whose payment status is Partial, and is accepted as a list filter.
	BookingStatusAdvancePaid BookingStatus = "ADVANCE_PAID"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusBooked, BookingStatusConfirmed, BookingStatusActive,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusDeleted,
		BookingStatusAdvancePaid:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// HistoryEntry is one line of a booking's audit trail. Entries are appended,
// never rewritten.
type HistoryEntry struct {
	ID          string    `json:"id"`
	ActorID     int32     `json:"actor_id"`
	At          time.Time `json:"at"`
	Description string    `json:"description"`
}

type Booking struct {
	ID            int32         `json:"id"`
	ShopID        int32         `json:"shop_id"`
	Number        int32         `json:"number"`
	VehicleIDs    []int32       `json:"vehicle_ids"`
	CustomerID    int32         `json:"customer_id"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `json:"end_date"`
	RentAmount    int64         `json:"rent_amount"`
	DepositAmount int64         `json:"deposit_amount"`
	TotalAmount   int64         `json:"total_amount"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaidAmount    int64         `json:"paid_amount"`
	Remaining     int64         `json:"remaining_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Notes         string        `json:"notes"`

	OpeningOdometer  *int64     `json:"opening_odometer,omitempty"`
	TakenAt          *time.Time `json:"taken_at,omitempty"`
	TakenBy          *int32     `json:"taken_by,omitempty"`
	ClosingOdometer  *int64     `json:"closing_odometer,omitempty"`
	DepositDeduction int64      `json:"deposit_deduction"`
	RefundAmount     int64      `json:"refund_amount"`
	DamageNotes      string     `json:"damage_notes"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty"`
	Finalized        bool       `json:"finalized"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CancelReason     string     `json:"cancel_reason"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`

	InvoiceNumber  string `json:"invoice_number"`
	InvoicePending bool   `json:"invoice_pending"`

	History   []HistoryEntry `json:"history"`
	CreatedOn time.Time      `json:"created_on"`
	UpdatedOn time.Time      `json:"updated_on"`
}

// HoldsVehicles reports whether the booking still reserves its vehicles, i.e.
// whether it takes part in overlap checks.
func (b *Booking) HoldsVehicles() bool {
	switch b.Status {
	case BookingStatusCancelled, BookingStatusDeleted, BookingStatusCompleted:
		return false
	}
	return true
}

// Visible reports whether the booking is drawn on the calendar and counted in
// revenue. Completed bookings stay visible.
func (b *Booking) Visible() bool {
	return b.Status != BookingStatusCancelled && b.Status != BookingStatusDeleted
}

func (b *Booking) Label() BookingStatus {
	if b.Status == BookingStatusConfirmed && b.PaymentStatus == PaymentStatusPartial {
		return BookingStatusAdvancePaid
	}
	return b.Status
}

func (b *Booking) Outstanding() int64 {
	if b.PaidAmount >= b.TotalAmount {
		return 0
	}
	return b.TotalAmount - b.PaidAmount
}

func (b *Booking) HasVehicle(id int32) bool {
	for _, v := range b.VehicleIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that a transition can be computed without
// touching the caller's value.
func (b Booking) Clone() Booking {
	c := b
	c.VehicleIDs = append([]int32(nil), b.VehicleIDs...)
	c.History = append([]HistoryEntry(nil), b.History...)
	c.OpeningOdometer = cloneInt64(b.OpeningOdometer)
	c.ClosingOdometer = cloneInt64(b.ClosingOdometer)
	c.TakenAt = cloneTime(b.TakenAt)
	c.ReturnedAt = cloneTime(b.ReturnedAt)
	c.CancelledAt = cloneTime(b.CancelledAt)
	c.DeletedAt = cloneTime(b.DeletedAt)
	if b.TakenBy != nil {
		v := *b.TakenBy
		c.TakenBy = &v
	}
	return c
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// BookingFilter narrows a booking listing. Zero values mean "no filter".
type BookingFilter struct {
	Status     BookingStatus
	VehicleID  int32
	CustomerID int32
	From       time.Time
	To         time.Time
	Page       int32
	PageSize   int32
}
