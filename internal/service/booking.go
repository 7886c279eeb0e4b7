package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/lock"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/utils"
)

type bookingService struct {
	shopRepo     repository.ShopRepository
	bookingRepo  repository.BookingRepository
	vehicleRepo  repository.VehicleRepository
	customerRepo repository.CustomerRepository
	locker       lock.Locker
	machine      *booking.Machine
	defaultLoc   *time.Location
}

func NewBookingService(
	shopRepo repository.ShopRepository,
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	customerRepo repository.CustomerRepository,
	locker lock.Locker,
	machine *booking.Machine,
	defaultLoc *time.Location,
) BookingService {
	return &bookingService{
		shopRepo:     shopRepo,
		bookingRepo:  bookingRepo,
		vehicleRepo:  vehicleRepo,
		customerRepo: customerRepo,
		locker:       locker,
		machine:      machine,
		defaultLoc:   defaultLoc,
	}
}

// expected reports whether err is a caller mistake rather than a fault.
func expected(err error) bool {
	for _, target := range []error{domain.ErrValidation, domain.ErrVehicleOverlap, domain.ErrInvalidTransition,
		domain.ErrNotFound, domain.ErrInvalidTimestamp, domain.ErrForbidden} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func shopLocation(ctx context.Context, shops repository.ShopRepository, shopID int32, fallback *time.Location) (*domain.Shop, *time.Location, error) {
	shop, err := shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, nil, err
	}
	return shop, shop.Location(fallback), nil
}

func parsePeriod(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	s, err := utils.ParseTimestamp(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	e, err := utils.ParseTimestamp(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}
	return s, e, nil
}

// loadVehicles fetches the booked vehicles, all of which must belong to the
// shop and still be in the fleet.
func (s *bookingService) loadVehicles(ctx context.Context, shopID int32, ids []int32) ([]domain.Vehicle, error) {
	if len(ids) == 0 {
		return nil, domain.Invalid("vehicle_ids", "at least one vehicle is required")
	}
	vehicles, err := s.vehicleRepo.GetMany(ctx, shopID, ids)
	if err != nil {
		return nil, err
	}
	for _, v := range vehicles {
		if v.Archived {
			return nil, domain.Invalid("vehicle_ids", "vehicle %d is archived", v.ID)
		}
	}
	return vehicles, nil
}

func (s *bookingService) QuoteRent(ctx context.Context, shopID int32, vehicleIDs []int32, start, end string) (*utils.RentQuote, error) {
	_, loc, err := shopLocation(ctx, s.shopRepo, shopID, s.defaultLoc)
	if err != nil {
		return nil, err
	}
	from, to, err := parsePeriod(start, end, loc)
	if err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, domain.Invalid("end_date", "must be after start date")
	}
	vehicles, err := s.loadVehicles(ctx, shopID, vehicleIDs)
	if err != nil {
		return nil, err
	}
	quote, err := utils.QuoteRent(from, to, vehicles)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, staff domain.Staff, req CreateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod(ctx, "bookingService.CreateBooking", "shopID", staff.ShopID, "vehicleIDs", req.VehicleIDs)

	b, err := s.create(ctx, staff, req)
	if err != nil {
		logger.ExitMethodWithError(ctx, "bookingService.CreateBooking", err, expected(err), "shopID", staff.ShopID)
		return nil, err
	}

	logger.ExitMethod(ctx, "bookingService.CreateBooking", "bookingID", b.ID, "number", b.Number)
	return b, nil
}

func (s *bookingService) create(ctx context.Context, staff domain.Staff, req CreateBookingRequest) (*domain.Booking, error) {
	_, loc, err := shopLocation(ctx, s.shopRepo, staff.ShopID, s.defaultLoc)
	if err != nil {
		return nil, err
	}
	start, end, err := parsePeriod(req.Start, req.End, loc)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, domain.Invalid("end_date", "must be after start date")
	}

	switch {
	case req.Customer != nil && req.CustomerID != 0:
		return nil, domain.Invalid("customer", "give either customer_id or a new customer, not both")
	case req.Customer != nil:
		if req.Customer.Name == "" {
			return nil, domain.Invalid("customer.name", "is required")
		}
		if req.Customer.Verification == "" {
			req.Customer.Verification = domain.VerificationPending
		}
	case req.CustomerID != 0:
		if _, err := s.customerRepo.GetByID(ctx, staff.ShopID, req.CustomerID); err != nil {
			return nil, err
		}
	}

	unlock, err := s.locker.Lock(ctx, staff.ShopID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	vehicles, err := s.loadVehicles(ctx, staff.ShopID, req.VehicleIDs)
	if err != nil {
		return nil, err
	}
	var rent int64
	if req.Rent != nil {
		rent = *req.Rent
	} else {
		quote, err := utils.QuoteRent(start, end, vehicles)
		if err != nil {
			return nil, err
		}
		rent = quote.Amount
	}

	existing, err := s.bookingRepo.ListOverlapping(ctx, staff.ShopID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load overlapping bookings: %w", err)
	}
	t, err := s.machine.Create(booking.CreateBooking{
		ShopID:         staff.ShopID,
		VehicleIDs:     req.VehicleIDs,
		CustomerID:     req.CustomerID,
		InlineCustomer: req.Customer != nil,
		Start:          start,
		End:            end,
		Rent:           rent,
		Deposit:        req.Deposit,
		Notes:          req.Notes,
		AllowBackdate:  req.AllowBackdate,
		Actor:          staff.ID,
	}, existing)
	if err != nil {
		return nil, err
	}

	b := t.Booking
	if err := s.bookingRepo.Create(ctx, &b, req.Customer); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *bookingService) GetBooking(ctx context.Context, shopID, id int32) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, shopID, id)
}

func (s *bookingService) ListBookings(ctx context.Context, shopID int32, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.Invalid("status", "unknown status %q", filter.Status)
	}
	return s.bookingRepo.List(ctx, shopID, filter)
}

// apply runs one transition of booking id inside the shop's lock: load, decide,
// commit. Nothing is written when decide fails or reports a no-op.
func (s *bookingService) apply(ctx context.Context, method string, shopID, id int32, decide func(current domain.Booking) (booking.Transition, error)) (booking.Transition, error) {
	logger.EnterMethod(ctx, method, "shopID", shopID, "bookingID", id)

	t, err := s.transition(ctx, shopID, id, decide)
	if err != nil {
		logger.ExitMethodWithError(ctx, method, err, expected(err), "shopID", shopID, "bookingID", id)
		return booking.Transition{}, err
	}

	logger.ExitMethod(ctx, method, "bookingID", id, "status", t.Booking.Status, "noop", t.Noop)
	return t, nil
}

func (s *bookingService) transition(ctx context.Context, shopID, id int32, decide func(current domain.Booking) (booking.Transition, error)) (booking.Transition, error) {
	unlock, err := s.locker.Lock(ctx, shopID)
	if err != nil {
		return booking.Transition{}, err
	}
	defer unlock()

	current, err := s.bookingRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return booking.Transition{}, err
	}
	t, err := decide(*current)
	if err != nil || t.Noop {
		return t, err
	}
	err = s.bookingRepo.Commit(ctx, repository.Mutation{
		Booking:  t.Booking,
		Entry:    t.Entry,
		Vehicles: t.Vehicles,
		Payment:  t.Payment,
	})
	if err != nil {
		return booking.Transition{}, err
	}
	return t, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, staff domain.Staff, id int32, req UpdateBookingRequest) (*domain.Booking, error) {
	_, loc, err := shopLocation(ctx, s.shopRepo, staff.ShopID, s.defaultLoc)
	if err != nil {
		return nil, err
	}
	start, end, err := parsePeriod(req.Start, req.End, loc)
	if err != nil {
		return nil, err
	}
	t, err := s.apply(ctx, "bookingService.UpdateBooking", staff.ShopID, id, func(current domain.Booking) (booking.Transition, error) {
		if _, err := s.loadVehicles(ctx, staff.ShopID, req.VehicleIDs); err != nil {
			return booking.Transition{}, err
		}
		existing, err := s.bookingRepo.ListOverlapping(ctx, staff.ShopID, start, end)
		if err != nil {
			return booking.Transition{}, fmt.Errorf("load overlapping bookings: %w", err)
		}
		return s.machine.Update(current, booking.UpdateBooking{
			VehicleIDs:    req.VehicleIDs,
			Start:         start,
			End:           end,
			Rent:          req.Rent,
			Deposit:       req.Deposit,
			Notes:         req.Notes,
			AllowBackdate: req.AllowBackdate,
			Actor:         staff.ID,
		}, existing)
	})
	if err != nil {
		return nil, err
	}
	return &t.Booking, nil
}

func (s *bookingService) RecordPayment(ctx context.Context, staff domain.Staff, id int32, in booking.RecordPayment) (*domain.Booking, *domain.Payment, error) {
	in.Actor = staff.ID
	t, err := s.apply(ctx, "bookingService.RecordPayment", staff.ShopID, id, func(current domain.Booking) (booking.Transition, error) {
		return s.machine.Pay(current, in)
	})
	if err != nil {
		return nil, nil, err
	}
	return &t.Booking, t.Payment, nil
}

func (s *bookingService) MarkTaken(ctx context.Context, staff domain.Staff, id int32, in booking.MarkTaken) (*domain.Booking, error) {
	in.Actor = staff.ID
	t, err := s.apply(ctx, "bookingService.MarkTaken", staff.ShopID, id, func(current domain.Booking) (booking.Transition, error) {
		return s.machine.Take(current, in)
	})
	if err != nil {
		return nil, err
	}
	return &t.Booking, nil
}

func (s *bookingService) ReturnBooking(ctx context.Context, staff domain.Staff, id int32, in booking.ReturnBooking) (*domain.Booking, *booking.ReturnSummary, error) {
	in.Actor = staff.ID
	var summary booking.ReturnSummary
	t, err := s.apply(ctx, "bookingService.ReturnBooking", staff.ShopID, id, func(current domain.Booking) (booking.Transition, error) {
		t, err := s.machine.Return(current, in)
		if err != nil {
			return t, err
		}
		summary, err = booking.CalculateReturn(current, in.Deduction, in.Settlement)
		return t, err
	})
	if err != nil {
		return nil, nil, err
	}
	return &t.Booking, &summary, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, staff domain.Staff, id int32, reason string) (*domain.Booking, error) {
	t, err := s.apply(ctx, "bookingService.CancelBooking", staff.ShopID, id, func(current domain.Booking) (booking.Transition, error) {
		return s.machine.Cancel(current, booking.CancelBooking{Reason: reason, Actor: staff.ID})
	})
	if err != nil {
		return nil, err
	}
	return &t.Booking, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, staff domain.Staff, id int32) (*domain.Booking, error) {
	if !staff.Role.CanDelete() {
		return nil, fmt.Errorf("%w: only owners and managers can delete bookings", domain.ErrForbidden)
	}
	t, err := s.apply(ctx, "bookingService.DeleteBooking", staff.ShopID, id, func(current domain.Booking) (booking.Transition, error) {
		return s.machine.Delete(current, booking.DeleteBooking{Actor: staff.ID})
	})
	if err != nil {
		return nil, err
	}
	return &t.Booking, nil
}

func (s *bookingService) GenerateInvoice(ctx context.Context, staff domain.Staff, id int32) (*booking.Invoice, error) {
	t, err := s.apply(ctx, "bookingService.GenerateInvoice", staff.ShopID, id, func(current domain.Booking) (booking.Transition, error) {
		return s.machine.Invoice(current, booking.GenerateInvoice{Actor: staff.ID})
	})
	if err != nil {
		return nil, err
	}
	return s.invoice(ctx, t.Booking)
}

func (s *bookingService) GetInvoice(ctx context.Context, shopID, id int32) (*booking.Invoice, error) {
	b, err := s.bookingRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	return s.invoice(ctx, *b)
}

func (s *bookingService) invoice(ctx context.Context, b domain.Booking) (*booking.Invoice, error) {
	shop, err := s.shopRepo.GetByID(ctx, b.ShopID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(ctx, b.ShopID, b.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load invoice customer: %w", err)
	}
	vehicles, err := s.vehicleRepo.GetMany(ctx, b.ShopID, b.VehicleIDs)
	if err != nil {
		return nil, fmt.Errorf("load invoice vehicles: %w", err)
	}
	inv, err := booking.BuildInvoice(*shop, b, *customer, vehicles)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *bookingService) ListPayments(ctx context.Context, shopID, id int32) ([]domain.Payment, error) {
	if _, err := s.bookingRepo.GetByID(ctx, shopID, id); err != nil {
		return nil, err
	}
	return s.bookingRepo.ListPayments(ctx, shopID, id)
}

func (s *bookingService) BackfillInvoices(ctx context.Context, limit int32) (int, error) {
	pending, err := s.bookingRepo.ListInvoicePending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list invoice pending bookings: %w", err)
	}

	done := 0
	for _, b := range pending {
		_, err := s.apply(ctx, "bookingService.BackfillInvoices", b.ShopID, b.ID, func(current domain.Booking) (booking.Transition, error) {
			return s.machine.Invoice(current, booking.GenerateInvoice{})
		})
		if err != nil {
			logger.Error("Failed to generate deferred invoice", "shopID", b.ShopID, "bookingID", b.ID, "error", err)
			continue
		}
		done++
	}
	return done, nil
}
