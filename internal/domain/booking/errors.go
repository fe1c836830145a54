package booking

import "errors"

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrDuplicateBooking = errors.New("booking already exists for this ride and passenger")
)
