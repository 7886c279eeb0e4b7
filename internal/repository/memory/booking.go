package memory

import (
	"context"
	"sort"
	"time"

	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
)

type bookingRepository struct{ *state }

// guard plays the part of the exclusion constraint: no two holding bookings
// may share a vehicle over an overlapping period.
func (r *bookingRepository) guard(b *domain.Booking) error {
	if !b.HoldsVehicles() {
		return nil
	}
	for _, other := range r.bookings {
		if other.ShopID != b.ShopID {
			continue
		}
		if conflict := booking.FindConflict(b.VehicleIDs, b.StartDate, b.EndDate, b.ID, []domain.Booking{*other}); conflict != nil {
			return conflict
		}
	}
	return nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	shop, ok := r.shops[b.ShopID]
	if !ok {
		return domain.NotFound("shop", b.ShopID)
	}
	if err := r.guard(b); err != nil {
		return err
	}
	if customer != nil {
		customer.ShopID = b.ShopID
		(&customerRepository{r.state}).insert(customer)
		b.CustomerID = customer.ID
	}
	shop.BookingSeq++
	r.bookingSeq++
	b.ID, b.Number = r.bookingSeq, shop.BookingSeq
	c := b.Clone()
	r.bookings[b.ID] = &c
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok || b.ShopID != shopID {
		return nil, domain.NotFound("booking", id)
	}
	c := b.Clone()
	return &c, nil
}

func (r *bookingRepository) ListOverlapping(ctx context.Context, shopID int32, from, to time.Time) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.ShopID != shopID || !b.Visible() || !booking.Overlaps(b.StartDate, b.EndDate, from, to) {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(b *domain.Booking, f domain.BookingFilter) bool {
	switch f.Status {
	case "":
		if b.Status == domain.BookingStatusDeleted {
			return false
		}
	case domain.BookingStatusAdvancePaid:
		if b.Label() != domain.BookingStatusAdvancePaid {
			return false
		}
	default:
		if b.Status != f.Status {
			return false
		}
	}
	if f.VehicleID != 0 && !b.HasVehicle(f.VehicleID) {
		return false
	}
	if f.CustomerID != 0 && b.CustomerID != f.CustomerID {
		return false
	}
	if !f.From.IsZero() && !b.EndDate.After(f.From) {
		return false
	}
	if !f.To.IsZero() && !b.StartDate.Before(f.To) {
		return false
	}
	return true
}

func (r *bookingRepository) List(ctx context.Context, shopID int32, f domain.BookingFilter) ([]domain.Booking, int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.ShopID == shopID && matches(b, f) {
			c := b.Clone()
			c.History = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, f.Page, f.PageSize), int32(len(out)), nil
}

func (r *bookingRepository) Commit(ctx context.Context, m repository.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := m.Booking.Clone()
	cur, ok := r.bookings[b.ID]
	if !ok || cur.ShopID != b.ShopID {
		return domain.NotFound("booking", b.ID)
	}
	if err := r.guard(&b); err != nil {
		return err
	}
	for _, vc := range m.Vehicles {
		if v, ok := r.vehicles[vc.VehicleID]; !ok || v.ShopID != b.ShopID {
			return domain.NotFound("vehicle", vc.VehicleID)
		}
	}

	// The stored history is authoritative; only the new entry is appended.
	b.History = append(append([]domain.HistoryEntry(nil), cur.History...), m.Entry)
	r.bookings[b.ID] = &b

	for _, vc := range m.Vehicles {
		v := r.vehicles[vc.VehicleID]
		if vc.Status != "" {
			v.Status = vc.Status
		}
		if vc.Odometer != nil {
			odo := *vc.Odometer
			v.LastOdometer = &odo
		}
		v.Damages = append(v.Damages, vc.Damages...)
		v.UpdatedOn = b.UpdatedOn
	}

	if p := m.Payment; p != nil {
		r.paymentSeq++
		p.ID = r.paymentSeq
		p.ShopID, p.BookingID = b.ShopID, b.ID
		r.payments = append(r.payments, *p)
	}
	return nil
}

func (r *bookingRepository) ListPayments(ctx context.Context, shopID, bookingID int32) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Payment
	for _, p := range r.payments {
		if p.ShopID == shopID && p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *bookingRepository) ListInvoicePending(ctx context.Context, limit int32) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.InvoicePending && b.Status == domain.BookingStatusCompleted {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

type availabilityRepository struct{ *state }

func (r *availabilityRepository) Block(ctx context.Context, o *domain.AvailabilityOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vehicles[o.VehicleID]; !ok || v.ShopID != o.ShopID {
		return domain.NotFound("vehicle", o.VehicleID)
	}
	if o.CreatedOn.IsZero() {
		o.CreatedOn = time.Now()
	}
	byDate := r.overrides[o.VehicleID]
	if byDate == nil {
		byDate = make(map[string]domain.AvailabilityOverride)
		r.overrides[o.VehicleID] = byDate
	}
	if prev, ok := byDate[o.Date]; ok {
		prev.Reason = o.Reason
		byDate[o.Date] = prev
		return nil
	}
	byDate[o.Date] = *o
	return nil
}

func (r *availabilityRepository) Unblock(ctx context.Context, shopID, vehicleID int32, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.overrides[vehicleID][date]
	if !ok || o.ShopID != shopID {
		return domain.NotFound("availability override", date)
	}
	delete(r.overrides[vehicleID], date)
	return nil
}

func (r *availabilityRepository) ListRange(ctx context.Context, shopID int32, from, to string) ([]domain.AvailabilityOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AvailabilityOverride
	for _, byDate := range r.overrides {
		for date, o := range byDate {
			// yyyy-mm-dd compares correctly as a string.
			if o.ShopID == shopID && date >= from && date <= to {
				out = append(out, o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].VehicleID < out[j].VehicleID
	})
	return out, nil
}

func (r *availabilityRepository) PurgeBefore(ctx context.Context, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, byDate := range r.overrides {
		for d := range byDate {
			if d < date {
				delete(byDate, d)
				n++
			}
		}
	}
	return n, nil
}
