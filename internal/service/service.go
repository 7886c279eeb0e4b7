package service

import (
	"context"
	"time"

	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/calendar"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/report"
	"rentalshop-backend/internal/utils"
)

// CreateBookingRequest is a new booking as entered at the counter. Start and
// End are RFC3339 or "2006-01-02T15:04" in the shop's timezone. Rent is quoted
// from the vehicles' daily prices when nil. Exactly one of CustomerID and
// Customer is set; Customer is created together with the booking.
type CreateBookingRequest struct {
	VehicleIDs    []int32
	CustomerID    int32
	Customer      *domain.Customer
	Start         string
	End           string
	Rent          *int64
	Deposit       int64
	Notes         string
	AllowBackdate bool
}

type UpdateBookingRequest struct {
	VehicleIDs    []int32
	Start         string
	End           string
	Rent          int64
	Deposit       int64
	Notes         string
	AllowBackdate bool
}

type BookingService interface {
	QuoteRent(ctx context.Context, shopID int32, vehicleIDs []int32, start, end string) (*utils.RentQuote, error)
	CreateBooking(ctx context.Context, staff domain.Staff, req CreateBookingRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, shopID, id int32) (*domain.Booking, error)
	ListBookings(ctx context.Context, shopID int32, filter domain.BookingFilter) ([]domain.Booking, int32, error)
	UpdateBooking(ctx context.Context, staff domain.Staff, id int32, req UpdateBookingRequest) (*domain.Booking, error)
	RecordPayment(ctx context.Context, staff domain.Staff, id int32, in booking.RecordPayment) (*domain.Booking, *domain.Payment, error)
	MarkTaken(ctx context.Context, staff domain.Staff, id int32, in booking.MarkTaken) (*domain.Booking, error)
	ReturnBooking(ctx context.Context, staff domain.Staff, id int32, in booking.ReturnBooking) (*domain.Booking, *booking.ReturnSummary, error)
	CancelBooking(ctx context.Context, staff domain.Staff, id int32, reason string) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, staff domain.Staff, id int32) (*domain.Booking, error)
	GenerateInvoice(ctx context.Context, staff domain.Staff, id int32) (*booking.Invoice, error)
	GetInvoice(ctx context.Context, shopID, id int32) (*booking.Invoice, error)
	ListPayments(ctx context.Context, shopID, id int32) ([]domain.Payment, error)
	// BackfillInvoices numbers completed bookings whose invoice was deferred.
	BackfillInvoices(ctx context.Context, limit int32) (int, error)
}

type FleetService interface {
	AddVehicle(ctx context.Context, v *domain.Vehicle) error
	GetVehicle(ctx context.Context, shopID, id int32) (*domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *domain.Vehicle) error
	ArchiveVehicle(ctx context.Context, shopID, id int32) (*domain.Vehicle, error)
	SetMaintenance(ctx context.Context, shopID, id int32, on bool) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, shopID int32, includeArchived bool) ([]domain.Vehicle, error)
	ReportDamage(ctx context.Context, staff domain.Staff, d *domain.Damage) error
	AvailableOn(ctx context.Context, shopID int32, date string) ([]domain.Vehicle, error)
	Block(ctx context.Context, staff domain.Staff, vehicleID int32, date, reason string) (*domain.AvailabilityOverride, error)
	Unblock(ctx context.Context, shopID, vehicleID int32, date string) error
	ListBlocks(ctx context.Context, shopID int32, from, to string) ([]domain.AvailabilityOverride, error)
	// PurgeBlocks drops overrides older than the retention period.
	PurgeBlocks(ctx context.Context, retention time.Duration) (int64, error)
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, shopID, id int32) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c *domain.Customer) error
	ListCustomers(ctx context.Context, shopID int32, query string, page, pageSize int32) ([]domain.Customer, int32, error)
}

// CalendarView is the occupancy grid of a shop for a run of days.
type CalendarView struct {
	Days     []time.Time
	Vehicles []domain.Vehicle
	Layout   *calendar.Layout
}

type CalendarService interface {
	GetCalendar(ctx context.Context, shopID int32, from string, days int) (*CalendarView, error)
}

type RevenueReport struct {
	Period  report.Period   `json:"period"`
	Buckets []report.Bucket `json:"buckets"`
	Totals  report.Bucket   `json:"totals"`
}

type ReportService interface {
	Revenue(ctx context.Context, shopID int32, from, to string, period report.Period) (*RevenueReport, error)
}
