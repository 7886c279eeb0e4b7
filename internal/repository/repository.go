package repository

import (
	"context"
	"time"

	"rentalshop-backend/internal/domain"
)

// Every method takes the shop id from the caller and never reads or writes
// rows of another shop.

type ShopRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Shop, error)
	List(ctx context.Context) ([]domain.Shop, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, v *domain.Vehicle) error
	GetByID(ctx context.Context, shopID, id int32) (*domain.Vehicle, error)
	GetMany(ctx context.Context, shopID int32, ids []int32) ([]domain.Vehicle, error)
	Update(ctx context.Context, v *domain.Vehicle) error
	List(ctx context.Context, shopID int32, includeArchived bool) ([]domain.Vehicle, error)
	AddDamage(ctx context.Context, shopID int32, d *domain.Damage) error
}

type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, shopID, id int32) (*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	List(ctx context.Context, shopID int32, query string, page, pageSize int32) ([]domain.Customer, int32, error)
}

// Mutation is everything one booking transition writes. It is applied in a
// single transaction together with exactly one history entry.
type Mutation struct {
	Booking  domain.Booking
	Entry    domain.HistoryEntry
	Vehicles []domain.VehicleChange
	Payment  *domain.Payment
}

type BookingRepository interface {
	// Create inserts b with its first history entry, assigning the id and the
	// shop's next booking number. When customer is non-nil it is inserted in the
	// same transaction and b.CustomerID set from it.
	Create(ctx context.Context, b *domain.Booking, customer *domain.Customer) error
	GetByID(ctx context.Context, shopID, id int32) (*domain.Booking, error)
	// ListOverlapping returns the bookings of the shop that are neither
	// cancelled nor deleted and overlap [from, to).
	ListOverlapping(ctx context.Context, shopID int32, from, to time.Time) ([]domain.Booking, error)
	List(ctx context.Context, shopID int32, filter domain.BookingFilter) ([]domain.Booking, int32, error)
	// Commit persists a transition. Both Create and Commit fail with a
	// *domain.OverlapError when the store already holds a vehicle for an
	// overlapping period.
	Commit(ctx context.Context, m Mutation) error
	ListPayments(ctx context.Context, shopID, bookingID int32) ([]domain.Payment, error)
	// ListInvoicePending returns completed bookings of all shops still waiting
	// for an invoice number.
	ListInvoicePending(ctx context.Context, limit int32) ([]domain.Booking, error)
}

type AvailabilityRepository interface {
	Block(ctx context.Context, o *domain.AvailabilityOverride) error
	Unblock(ctx context.Context, shopID, vehicleID int32, date string) error
	// ListRange returns the overrides with from <= date <= to (yyyy-mm-dd).
	ListRange(ctx context.Context, shopID int32, from, to string) ([]domain.AvailabilityOverride, error)
	PurgeBefore(ctx context.Context, date string) (int64, error)
}

// Store bundles the repositories a running server needs.
type Store struct {
	Shops        ShopRepository
	Vehicles     VehicleRepository
	Customers    CustomerRepository
	Bookings     BookingRepository
	Availability AvailabilityRepository
}
