package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rentalshop-backend/internal/domain"
)

const DefaultBackdateWindow = 7 * 24 * time.Hour

// CreateBooking asks for a new reservation. Rent must already be resolved
// (quoted or entered) by the caller. InlineCustomer marks that the customer is
// created together with the booking and has no id yet.
type CreateBooking struct {
	ShopID         int32
	VehicleIDs     []int32
	CustomerID     int32
	InlineCustomer bool
	Start          time.Time
	End            time.Time
	Rent           int64
	Deposit        int64
	Notes          string
	AllowBackdate  bool
	Actor          int32
}

// UpdateBooking replaces the editable fields of a booking.
type UpdateBooking struct {
	VehicleIDs    []int32
	Start         time.Time
	End           time.Time
	Rent          int64
	Deposit       int64
	Notes         string
	AllowBackdate bool
	Actor         int32
}

type RecordPayment struct {
	Amount int64
	Method domain.PaymentMethod
	Actor  int32
}

type MarkTaken struct {
	OpeningOdometer *int64
	Actor           int32
}

// ReturnBooking closes an active booking. Damages without a VehicleID are
// attributed to the booking's only vehicle.
type ReturnBooking struct {
	ClosingOdometer  *int64
	Damages          []domain.Damage
	Deduction        int64
	DamageNotes      string
	Settlement       int64
	SettlementMethod domain.PaymentMethod
	DeferInvoice     bool
	Actor            int32
}

type CancelBooking struct {
	Reason string
	Actor  int32
}

type DeleteBooking struct {
	Actor int32
}

type GenerateInvoice struct {
	Actor int32
}

// Transition is the outcome of applying an intent. Booking is a fresh copy;
// the input booking is never modified. Noop is set when the intent was already
// satisfied and there is nothing to commit.
type Transition struct {
	Booking  domain.Booking
	Vehicles []domain.VehicleChange
	Payment  *domain.Payment
	Entry    domain.HistoryEntry
	Noop     bool
}

// Machine applies intents to bookings. It holds no state besides its settings,
// so one value can be shared by all shops.
type Machine struct {
	BackdateWindow time.Duration
	Now            func() time.Time
}

func NewMachine(backdateWindow time.Duration) *Machine {
	if backdateWindow < 0 {
		backdateWindow = DefaultBackdateWindow
	}
	return &Machine{BackdateWindow: backdateWindow, Now: time.Now}
}

func (m *Machine) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Machine) entry(actor int32, at time.Time, format string, args ...any) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:          ulid.Make().String(),
		ActorID:     actor,
		At:          at,
		Description: fmt.Sprintf(format, args...),
	}
}

func (m *Machine) commit(b domain.Booking, e domain.HistoryEntry) Transition {
	b.History = append(b.History, e)
	b.UpdatedOn = e.At
	return Transition{Booking: b, Entry: e}
}

func (m *Machine) validatePeriod(vehicleIDs []int32, start, end time.Time, checkBackdate, allowBackdate bool) error {
	if len(vehicleIDs) == 0 {
		return domain.Invalid("vehicle_ids", "at least one vehicle is required")
	}
	seen := make(map[int32]bool, len(vehicleIDs))
	for _, id := range vehicleIDs {
		if id <= 0 {
			return domain.Invalid("vehicle_ids", "invalid vehicle id %d", id)
		}
		if seen[id] {
			return domain.Invalid("vehicle_ids", "vehicle %d listed twice", id)
		}
		seen[id] = true
	}
	if start.IsZero() {
		return domain.Invalid("start_date", "is required")
	}
	if end.IsZero() {
		return domain.Invalid("end_date", "is required")
	}
	if !end.After(start) {
		return domain.Invalid("end_date", "must be after start date")
	}
	if checkBackdate && !allowBackdate && start.Before(m.now().Add(-m.BackdateWindow)) {
		return domain.Invalid("start_date", "more than %d days in the past", int(m.BackdateWindow.Hours()/24))
	}
	return nil
}

func validateAmounts(rent, deposit int64) error {
	if rent < 0 {
		return domain.Invalid("rent_amount", "must not be negative")
	}
	if deposit < 0 {
		return domain.Invalid("deposit_amount", "must not be negative")
	}
	return nil
}

// Create validates a new booking against the shop's existing bookings.
func (m *Machine) Create(in CreateBooking, existing []domain.Booking) (Transition, error) {
	if in.CustomerID <= 0 && !in.InlineCustomer {
		return Transition{}, domain.Invalid("customer_id", "is required")
	}
	if err := m.validatePeriod(in.VehicleIDs, in.Start, in.End, true, in.AllowBackdate); err != nil {
		return Transition{}, err
	}
	if err := validateAmounts(in.Rent, in.Deposit); err != nil {
		return Transition{}, err
	}
	if conflict := FindConflict(in.VehicleIDs, in.Start, in.End, 0, existing); conflict != nil {
		return Transition{}, conflict
	}

	now := m.now()
	total := in.Rent + in.Deposit
	b := domain.Booking{
		ShopID:        in.ShopID,
		VehicleIDs:    append([]int32(nil), in.VehicleIDs...),
		CustomerID:    in.CustomerID,
		StartDate:     in.Start,
		EndDate:       in.End,
		RentAmount:    in.Rent,
		DepositAmount: in.Deposit,
		TotalAmount:   total,
		Status:        domain.BookingStatusBooked,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Remaining:     total,
		Notes:         in.Notes,
		CreatedOn:     now,
	}
	return m.commit(b, m.entry(in.Actor, now, "Booking created")), nil
}

// Update edits dates, vehicles and amounts. The vehicle set of an active
// booking is fixed since the vehicles are already out.
func (m *Machine) Update(current domain.Booking, in UpdateBooking, existing []domain.Booking) (Transition, error) {
	switch current.Status {
	case domain.BookingStatusBooked, domain.BookingStatusConfirmed, domain.BookingStatusActive:
	default:
		return Transition{}, &domain.TransitionError{Operation: "update", From: current.Label()}
	}
	startChanged := !in.Start.Equal(current.StartDate)
	if err := m.validatePeriod(in.VehicleIDs, in.Start, in.End, startChanged, in.AllowBackdate); err != nil {
		return Transition{}, err
	}
	if err := validateAmounts(in.Rent, in.Deposit); err != nil {
		return Transition{}, err
	}
	if current.Status == domain.BookingStatusActive && !sameVehicles(current.VehicleIDs, in.VehicleIDs) {
		return Transition{}, domain.Invalid("vehicle_ids", "cannot change the vehicles of an active booking")
	}
	total := in.Rent + in.Deposit
	if current.PaidAmount > total {
		return Transition{}, domain.Invalid("rent_amount", "total %d is below the %d already paid", total, current.PaidAmount)
	}
	if conflict := FindConflict(in.VehicleIDs, in.Start, in.End, current.ID, existing); conflict != nil {
		return Transition{}, conflict
	}

	b := current.Clone()
	b.VehicleIDs = append([]int32(nil), in.VehicleIDs...)
	b.StartDate = in.Start
	b.EndDate = in.End
	b.RentAmount = in.Rent
	b.DepositAmount = in.Deposit
	b.TotalAmount = total
	b.Notes = in.Notes
	settle(&b)

	return m.commit(b, m.entry(in.Actor, m.now(), "Booking updated: %s to %s, total %d",
		in.Start.Format("2006-01-02 15:04"), in.End.Format("2006-01-02 15:04"), total)), nil
}

// settle recomputes the payment status and remaining amount after the paid
// amount or the total changed.
func settle(b *domain.Booking) {
	b.Remaining = b.Outstanding()
	switch {
	case b.PaidAmount <= 0:
		b.PaymentStatus = domain.PaymentStatusUnpaid
	case b.Remaining == 0:
		b.PaymentStatus = domain.PaymentStatusPaid
	default:
		b.PaymentStatus = domain.PaymentStatusPartial
	}
}

func sameVehicles(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int32]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

// Pay records an advance or full payment. A payment below the outstanding
// balance is an advance; anything from the outstanding balance up to the total
// settles the booking in full.
func (m *Machine) Pay(current domain.Booking, in RecordPayment) (Transition, error) {
	switch current.Status {
	case domain.BookingStatusBooked, domain.BookingStatusConfirmed:
	default:
		return Transition{}, &domain.TransitionError{Operation: "record a payment for", From: current.Label()}
	}
	if current.PaymentStatus == domain.PaymentStatusPaid {
		return Transition{}, &domain.TransitionError{Operation: "record a payment for", From: current.Label()}
	}
	if in.Amount <= 0 {
		return Transition{}, domain.Invalid("amount", "must be positive")
	}
	if in.Amount > current.TotalAmount {
		return Transition{}, domain.Invalid("amount", "%d exceeds booking total %d", in.Amount, current.TotalAmount)
	}
	if !in.Method.Valid() {
		return Transition{}, domain.Invalid("payment_method", "unknown method %q", in.Method)
	}

	now := m.now()
	outstanding := current.Outstanding()
	b := current.Clone()
	b.Status = domain.BookingStatusConfirmed
	b.PaymentMethod = in.Method

	p := &domain.Payment{
		ShopID:     b.ShopID,
		BookingID:  b.ID,
		Method:     in.Method,
		RecordedBy: in.Actor,
		RecordedAt: now,
	}
	var e domain.HistoryEntry
	if in.Amount < outstanding {
		b.PaidAmount += in.Amount
		p.Amount, p.Kind = in.Amount, domain.PaymentKindAdvance
		e = m.entry(in.Actor, now, "Advance of %d received by %s, %d remaining", in.Amount, in.Method, b.TotalAmount-b.PaidAmount)
	} else {
		b.PaidAmount = b.TotalAmount
		p.Amount, p.Kind = outstanding, domain.PaymentKindFull
		desc := fmt.Sprintf("Payment of %d received by %s, booking paid in full", outstanding, in.Method)
		if change := in.Amount - outstanding; change > 0 {
			desc += fmt.Sprintf(", %d returned as change", change)
		}
		e = m.entry(in.Actor, now, "%s", desc)
	}
	settle(&b)

	t := m.commit(b, e)
	t.Payment = p
	return t, nil
}

// Take hands the vehicles to the customer.
func (m *Machine) Take(current domain.Booking, in MarkTaken) (Transition, error) {
	if current.Status != domain.BookingStatusConfirmed {
		return Transition{}, &domain.TransitionError{Operation: "hand over", From: current.Label()}
	}
	if in.OpeningOdometer == nil {
		return Transition{}, domain.Invalid("opening_odometer", "is required")
	}
	if *in.OpeningOdometer < 0 {
		return Transition{}, domain.Invalid("opening_odometer", "must not be negative")
	}

	now := m.now()
	b := current.Clone()
	reading := *in.OpeningOdometer
	actor := in.Actor
	b.Status = domain.BookingStatusActive
	b.OpeningOdometer = &reading
	b.TakenAt = &now
	b.TakenBy = &actor

	t := m.commit(b, m.entry(in.Actor, now, "Vehicle taken, opening odometer %d", reading))
	t.Vehicles = vehicleStatus(b.VehicleIDs, domain.VehicleStatusBooked)
	return t, nil
}

func vehicleStatus(ids []int32, status domain.VehicleStatus) []domain.VehicleChange {
	changes := make([]domain.VehicleChange, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, domain.VehicleChange{VehicleID: id, Status: status})
	}
	return changes
}

// Return completes an active booking, applying the return calculation, any
// final settlement and the vehicle updates.
func (m *Machine) Return(current domain.Booking, in ReturnBooking) (Transition, error) {
	if current.Status != domain.BookingStatusActive {
		return Transition{}, &domain.TransitionError{Operation: "return", From: current.Label()}
	}
	if in.ClosingOdometer == nil {
		return Transition{}, domain.Invalid("closing_odometer", "is required")
	}
	closing := *in.ClosingOdometer
	if closing < 0 {
		return Transition{}, domain.Invalid("closing_odometer", "must not be negative")
	}
	if current.OpeningOdometer != nil && closing < *current.OpeningOdometer {
		return Transition{}, domain.Invalid("closing_odometer", "%d is below the opening reading %d", closing, *current.OpeningOdometer)
	}
	summary, err := CalculateReturn(current, in.Deduction, in.Settlement)
	if err != nil {
		return Transition{}, err
	}
	if in.Settlement > 0 && !in.SettlementMethod.Valid() {
		return Transition{}, domain.Invalid("settlement_method", "unknown method %q", in.SettlementMethod)
	}

	now := m.now()
	damages, err := m.attributeDamages(current, in.Damages, in.Actor, now)
	if err != nil {
		return Transition{}, err
	}

	b := current.Clone()
	b.Status = domain.BookingStatusCompleted
	b.ClosingOdometer = &closing
	b.DepositDeduction = summary.Deduction
	b.RefundAmount = summary.Refund
	b.DamageNotes = in.DamageNotes
	b.ReturnedAt = &now
	b.Finalized = true

	var p *domain.Payment
	if in.Settlement > 0 {
		b.PaidAmount += in.Settlement
		b.PaymentMethod = in.SettlementMethod
		p = &domain.Payment{
			ShopID:     b.ShopID,
			BookingID:  b.ID,
			Amount:     in.Settlement,
			Kind:       domain.PaymentKindSettlement,
			Method:     in.SettlementMethod,
			RecordedBy: in.Actor,
			RecordedAt: now,
		}
	}
	settle(&b)

	if in.DeferInvoice {
		b.InvoicePending = true
	} else {
		b.InvoiceNumber = InvoiceNumber(b)
	}

	desc := fmt.Sprintf("Vehicle returned, closing odometer %d, deduction %d, refund %d", closing, summary.Deduction, summary.Refund)
	if len(damages) > 0 {
		desc += fmt.Sprintf(", %d damage(s) recorded", len(damages))
	}
	t := m.commit(b, m.entry(in.Actor, now, "%s", desc))
	t.Payment = p
	for _, id := range b.VehicleIDs {
		reading := closing
		t.Vehicles = append(t.Vehicles, domain.VehicleChange{
			VehicleID: id,
			Status:    domain.VehicleStatusAvailable,
			Odometer:  &reading,
			Damages:   damages[id],
		})
	}
	return t, nil
}

func (m *Machine) attributeDamages(b domain.Booking, damages []domain.Damage, actor int32, at time.Time) (map[int32][]domain.Damage, error) {
	out := make(map[int32][]domain.Damage)
	for i, d := range damages {
		field := fmt.Sprintf("damages[%d]", i)
		if d.VehicleID == 0 {
			if len(b.VehicleIDs) != 1 {
				return nil, domain.Invalid(field+".vehicle_id", "is required for a multi-vehicle booking")
			}
			d.VehicleID = b.VehicleIDs[0]
		}
		if !b.HasVehicle(d.VehicleID) {
			return nil, domain.Invalid(field+".vehicle_id", "vehicle %d is not part of this booking", d.VehicleID)
		}
		if !d.Type.Valid() {
			return nil, domain.Invalid(field+".type", "unknown damage type %q", d.Type)
		}
		if d.Severity == "" {
			d.Severity = domain.DamageSeverityMinor
		}
		if d.Severity != domain.DamageSeverityMinor && d.Severity != domain.DamageSeverityMajor {
			return nil, domain.Invalid(field+".severity", "unknown severity %q", d.Severity)
		}
		bookingID := b.ID
		d.ID = uuid.NewString()
		d.BookingID = &bookingID
		d.Photos = append([]string(nil), d.Photos...)
		d.RecordedBy = actor
		d.RecordedAt = at
		out[d.VehicleID] = append(out[d.VehicleID], d)
	}
	return out, nil
}

// Cancel is allowed until the booking is completed. Cancelling an active
// booking releases its vehicles.
func (m *Machine) Cancel(current domain.Booking, in CancelBooking) (Transition, error) {
	switch current.Status {
	case domain.BookingStatusBooked, domain.BookingStatusConfirmed, domain.BookingStatusActive:
	default:
		return Transition{}, &domain.TransitionError{Operation: "cancel", From: current.Label()}
	}

	now := m.now()
	b := current.Clone()
	b.Status = domain.BookingStatusCancelled
	b.CancelledAt = &now
	b.CancelReason = in.Reason

	desc := "Booking cancelled"
	if in.Reason != "" {
		desc += ": " + in.Reason
	}
	t := m.commit(b, m.entry(in.Actor, now, "%s", desc))
	if current.Status == domain.BookingStatusActive {
		t.Vehicles = vehicleStatus(b.VehicleIDs, domain.VehicleStatusAvailable)
	}
	return t, nil
}

// Delete soft-deletes a booking in any status. History is kept.
func (m *Machine) Delete(current domain.Booking, in DeleteBooking) (Transition, error) {
	if current.Status == domain.BookingStatusDeleted {
		return Transition{}, &domain.TransitionError{Operation: "delete", From: current.Status}
	}

	now := m.now()
	b := current.Clone()
	b.Status = domain.BookingStatusDeleted
	b.DeletedAt = &now

	t := m.commit(b, m.entry(in.Actor, now, "Booking deleted (was %s)", current.Label()))
	if current.Status == domain.BookingStatusActive {
		t.Vehicles = vehicleStatus(b.VehicleIDs, domain.VehicleStatusAvailable)
	}
	return t, nil
}

// Invoice assigns the invoice number of a completed booking. Calling it again
// once a number exists is a no-op.
func (m *Machine) Invoice(current domain.Booking, in GenerateInvoice) (Transition, error) {
	if current.Status != domain.BookingStatusCompleted {
		return Transition{}, &domain.TransitionError{Operation: "invoice", From: current.Label()}
	}
	if current.InvoiceNumber != "" {
		return Transition{Booking: current.Clone(), Noop: true}, nil
	}

	b := current.Clone()
	b.InvoiceNumber = InvoiceNumber(b)
	b.InvoicePending = false
	return m.commit(b, m.entry(in.Actor, m.now(), "Invoice %s generated", b.InvoiceNumber)), nil
}
