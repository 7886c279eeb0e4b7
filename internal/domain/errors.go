package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrVehicleOverlap    = errors.New("vehicle overlap")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrForbidden         = errors.New("forbidden")
)

// FieldError names the offending input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

func Invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// OverlapError identifies the booking that already holds the vehicle. BookingID
// is zero when only the store's constraint caught the overlap.
type OverlapError struct {
	VehicleID int32
	BookingID int32
}

func (e *OverlapError) Error() string {
	if e.BookingID == 0 {
		return fmt.Sprintf("vehicle %d is already booked for an overlapping period", e.VehicleID)
	}
	return fmt.Sprintf("vehicle %d is already booked by booking %d for an overlapping period", e.VehicleID, e.BookingID)
}

func (e *OverlapError) Unwrap() error { return ErrVehicleOverlap }

type TransitionError struct {
	Operation string
	From      BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a booking in status %s", e.Operation, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}
