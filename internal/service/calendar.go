package service

import (
	"context"
	"time"

	"rentalshop-backend/internal/calendar"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/utils"
)

type calendarService struct {
	shopRepo    repository.ShopRepository
	vehicleRepo repository.VehicleRepository
	bookingRepo repository.BookingRepository
	builder     *calendar.Builder
	maxDays     int
	defaultLoc  *time.Location
}

func NewCalendarService(
	shopRepo repository.ShopRepository,
	vehicleRepo repository.VehicleRepository,
	bookingRepo repository.BookingRepository,
	builder *calendar.Builder,
	maxDays int,
	defaultLoc *time.Location,
) CalendarService {
	return &calendarService{
		shopRepo:    shopRepo,
		vehicleRepo: vehicleRepo,
		bookingRepo: bookingRepo,
		builder:     builder,
		maxDays:     maxDays,
		defaultLoc:  defaultLoc,
	}
}

// GetCalendar lays out days consecutive days starting at from (yyyy-mm-dd in
// the shop's timezone). Segments are rebuilt from the stored bookings on every
// call.
func (s *calendarService) GetCalendar(ctx context.Context, shopID int32, from string, days int) (*CalendarView, error) {
	logger.EnterMethod(ctx, "calendarService.GetCalendar", "shopID", shopID, "from", from, "days", days)

	if days <= 0 || days > s.maxDays {
		err := domain.Invalid("days", "must be between 1 and %d", s.maxDays)
		logger.ExitMethodWithError(ctx, "calendarService.GetCalendar", err, true)
		return nil, err
	}
	_, loc, err := shopLocation(ctx, s.shopRepo, shopID, s.defaultLoc)
	if err != nil {
		logger.ExitMethodWithError(ctx, "calendarService.GetCalendar", err, expected(err))
		return nil, err
	}
	first, err := utils.ParseDate(from, loc)
	if err != nil {
		logger.ExitMethodWithError(ctx, "calendarService.GetCalendar", err, true)
		return nil, err
	}

	grid := utils.Days(first, days)
	windowEnd := grid[len(grid)-1].AddDate(0, 0, 1)

	vehicles, err := s.vehicleRepo.List(ctx, shopID, false)
	if err != nil {
		logger.ExitMethodWithError(ctx, "calendarService.GetCalendar", err, false)
		return nil, err
	}
	bookings, err := s.bookingRepo.ListOverlapping(ctx, shopID, grid[0], windowEnd)
	if err != nil {
		logger.ExitMethodWithError(ctx, "calendarService.GetCalendar", err, false)
		return nil, err
	}

	layout := s.builder.Build(vehicles, bookings, grid)
	logger.ExitMethod(ctx, "calendarService.GetCalendar", "vehicles", len(vehicles), "segments", len(layout.Segments))
	return &CalendarView{Days: grid, Vehicles: vehicles, Layout: layout}, nil
}
