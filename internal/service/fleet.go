package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/utils"
)

type fleetService struct {
	shopRepo         repository.ShopRepository
	vehicleRepo      repository.VehicleRepository
	bookingRepo      repository.BookingRepository
	availabilityRepo repository.AvailabilityRepository
	defaultLoc       *time.Location
	now              func() time.Time
}

func NewFleetService(
	shopRepo repository.ShopRepository,
	vehicleRepo repository.VehicleRepository,
	bookingRepo repository.BookingRepository,
	availabilityRepo repository.AvailabilityRepository,
	defaultLoc *time.Location,
) FleetService {
	return &fleetService{
		shopRepo:         shopRepo,
		vehicleRepo:      vehicleRepo,
		bookingRepo:      bookingRepo,
		availabilityRepo: availabilityRepo,
		defaultLoc:       defaultLoc,
		now:              time.Now,
	}
}

func validateVehicle(v *domain.Vehicle) error {
	v.Name = strings.TrimSpace(v.Name)
	v.RegistrationNumber = strings.ToUpper(strings.TrimSpace(v.RegistrationNumber))
	if v.Name == "" {
		return domain.Invalid("name", "is required")
	}
	if v.RegistrationNumber == "" {
		return domain.Invalid("registration_number", "is required")
	}
	if v.Category != domain.VehicleCategoryBike && v.Category != domain.VehicleCategoryCar {
		return domain.Invalid("category", "must be BIKE or CAR")
	}
	if v.DailyPrice < 0 {
		return domain.Invalid("daily_price", "must not be negative")
	}
	if v.LastOdometer != nil && *v.LastOdometer < 0 {
		return domain.Invalid("last_odometer", "must not be negative")
	}
	return nil
}

func (s *fleetService) AddVehicle(ctx context.Context, v *domain.Vehicle) error {
	logger.EnterMethod(ctx, "fleetService.AddVehicle", "shopID", v.ShopID, "registration", v.RegistrationNumber)
	if err := validateVehicle(v); err != nil {
		logger.ExitMethodWithError(ctx, "fleetService.AddVehicle", err, true)
		return err
	}
	v.Status = domain.VehicleStatusAvailable
	v.Archived = false
	v.Damages = nil
	if err := s.vehicleRepo.Create(ctx, v); err != nil {
		logger.ExitMethodWithError(ctx, "fleetService.AddVehicle", err, expected(err))
		return err
	}
	logger.ExitMethod(ctx, "fleetService.AddVehicle", "vehicleID", v.ID)
	return nil
}

func (s *fleetService) GetVehicle(ctx context.Context, shopID, id int32) (*domain.Vehicle, error) {
	return s.vehicleRepo.GetByID(ctx, shopID, id)
}

// UpdateVehicle edits the descriptive fields. Status, archive flag and the
// damage list have their own operations and are kept from the stored vehicle.
func (s *fleetService) UpdateVehicle(ctx context.Context, v *domain.Vehicle) error {
	if err := validateVehicle(v); err != nil {
		return err
	}
	current, err := s.vehicleRepo.GetByID(ctx, v.ShopID, v.ID)
	if err != nil {
		return err
	}
	v.Status = current.Status
	v.Archived = current.Archived
	v.Damages = current.Damages
	if v.LastOdometer == nil {
		v.LastOdometer = current.LastOdometer
	}
	return s.vehicleRepo.Update(ctx, v)
}

// ArchiveVehicle takes a vehicle out of the fleet. Vehicles are never deleted
// since bookings and invoices keep referring to them.
func (s *fleetService) ArchiveVehicle(ctx context.Context, shopID, id int32) (*domain.Vehicle, error) {
	v, err := s.vehicleRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	if v.Archived {
		return v, nil
	}
	if v.Status == domain.VehicleStatusBooked {
		return nil, domain.Invalid("status", "vehicle %d is out on a booking", id)
	}
	v.Archived = true
	if err := s.vehicleRepo.Update(ctx, v); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Vehicle archived", "shopID", shopID, "vehicleID", id)
	return v, nil
}

func (s *fleetService) SetMaintenance(ctx context.Context, shopID, id int32, on bool) (*domain.Vehicle, error) {
	v, err := s.vehicleRepo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	switch {
	case on && v.Status == domain.VehicleStatusBooked:
		return nil, domain.Invalid("status", "vehicle %d is out on a booking", id)
	case on:
		v.Status = domain.VehicleStatusMaintenance
	case v.Status == domain.VehicleStatusMaintenance:
		v.Status = domain.VehicleStatusAvailable
	default:
		return v, nil
	}
	if err := s.vehicleRepo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *fleetService) ListVehicles(ctx context.Context, shopID int32, includeArchived bool) ([]domain.Vehicle, error) {
	return s.vehicleRepo.List(ctx, shopID, includeArchived)
}

// ReportDamage records damage found outside of a return.
func (s *fleetService) ReportDamage(ctx context.Context, staff domain.Staff, d *domain.Damage) error {
	if !d.Type.Valid() {
		return domain.Invalid("type", "unknown damage type %q", d.Type)
	}
	if d.Severity == "" {
		d.Severity = domain.DamageSeverityMinor
	}
	if d.Severity != domain.DamageSeverityMinor && d.Severity != domain.DamageSeverityMajor {
		return domain.Invalid("severity", "unknown severity %q", d.Severity)
	}
	d.ID = uuid.NewString()
	d.BookingID = nil
	d.RecordedBy = staff.ID
	d.RecordedAt = s.now()
	return s.vehicleRepo.AddDamage(ctx, staff.ShopID, d)
}

func (s *fleetService) AvailableOn(ctx context.Context, shopID int32, date string) ([]domain.Vehicle, error) {
	_, loc, err := shopLocation(ctx, s.shopRepo, shopID, s.defaultLoc)
	if err != nil {
		return nil, err
	}
	day, err := utils.ParseDate(date, loc)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicleRepo.List(ctx, shopID, false)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.ListOverlapping(ctx, shopID, utils.StartOfDay(day), utils.EndOfDay(day))
	if err != nil {
		return nil, err
	}
	overrides, err := s.availabilityRepo.ListRange(ctx, shopID, utils.FormatDate(day), utils.FormatDate(day))
	if err != nil {
		return nil, err
	}
	return booking.AvailableVehicles(vehicles, day, bookings, booking.NewOverrideSet(overrides)), nil
}

func (s *fleetService) Block(ctx context.Context, staff domain.Staff, vehicleID int32, date, reason string) (*domain.AvailabilityOverride, error) {
	day, err := utils.ParseDate(date, time.UTC)
	if err != nil {
		return nil, err
	}
	o := &domain.AvailabilityOverride{
		ShopID:    staff.ShopID,
		VehicleID: vehicleID,
		Date:      utils.FormatDate(day),
		Reason:    strings.TrimSpace(reason),
		CreatedBy: staff.ID,
		CreatedOn: s.now(),
	}
	if err := s.availabilityRepo.Block(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *fleetService) Unblock(ctx context.Context, shopID, vehicleID int32, date string) error {
	day, err := utils.ParseDate(date, time.UTC)
	if err != nil {
		return err
	}
	return s.availabilityRepo.Unblock(ctx, shopID, vehicleID, utils.FormatDate(day))
}

func (s *fleetService) ListBlocks(ctx context.Context, shopID int32, from, to string) ([]domain.AvailabilityOverride, error) {
	f, err := utils.ParseDate(from, time.UTC)
	if err != nil {
		return nil, err
	}
	t, err := utils.ParseDate(to, time.UTC)
	if err != nil {
		return nil, err
	}
	if t.Before(f) {
		return nil, domain.Invalid("to", "must not be before from")
	}
	return s.availabilityRepo.ListRange(ctx, shopID, utils.FormatDate(f), utils.FormatDate(t))
}

func (s *fleetService) PurgeBlocks(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := utils.FormatDate(s.now().Add(-retention))
	n, err := s.availabilityRepo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge overrides before %s: %w", cutoff, err)
	}
	return n, nil
}
