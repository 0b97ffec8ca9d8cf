package booking

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidBooking  = errors.New("invalid booking record")
	ErrForbidden       = errors.New("booking belongs to another client")
)
