package service

import (
	"context"
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/report"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/utils"
)

type reportService struct {
	shopRepo    repository.ShopRepository
	bookingRepo repository.BookingRepository
	weekStart   time.Weekday
	defaultLoc  *time.Location
}

func NewReportService(shopRepo repository.ShopRepository, bookingRepo repository.BookingRepository, weekStart time.Weekday, defaultLoc *time.Location) ReportService {
	return &reportService{shopRepo: shopRepo, bookingRepo: bookingRepo, weekStart: weekStart, defaultLoc: defaultLoc}
}

// Revenue sums bookings by the bucket their start falls in. from and to are
// inclusive yyyy-mm-dd dates in the shop's timezone.
func (s *reportService) Revenue(ctx context.Context, shopID int32, from, to string, period report.Period) (*RevenueReport, error) {
	if !period.Valid() {
		return nil, domain.Invalid("period", "must be one of day, week, month")
	}
	_, loc, err := shopLocation(ctx, s.shopRepo, shopID, s.defaultLoc)
	if err != nil {
		return nil, err
	}
	start, err := utils.ParseDate(from, loc)
	if err != nil {
		return nil, err
	}
	last, err := utils.ParseDate(to, loc)
	if err != nil {
		return nil, err
	}
	if last.Before(start) {
		return nil, domain.Invalid("to", "must not be before from")
	}
	end := last.AddDate(0, 0, 1)

	bookings, err := s.bookingRepo.ListOverlapping(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}
	buckets, err := report.NewAggregator(loc, s.weekStart).Aggregate(bookings, start, end, period)
	if err != nil {
		return nil, err
	}
	return &RevenueReport{Period: period, Buckets: buckets, Totals: report.Totals(buckets)}, nil
}
