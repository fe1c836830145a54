package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines booking data access. The store enforces uniqueness on
// (ride, passenger); Create surfaces a violation as ErrDuplicateBooking.
type Repository interface {
	// Create inserts a booking. Returns ErrDuplicateBooking if one already
	// exists for the pair.
	Create(ctx context.Context, b *Booking) error

	// Get retrieves the booking for (ride, passenger).
	Get(ctx context.Context, rideID, passengerID uuid.UUID) (*Booking, error)

	// Delete removes the booking for (ride, passenger). Returns
	// ErrBookingNotFound if none exists.
	Delete(ctx context.Context, rideID, passengerID uuid.UUID) error

	// ListByRide returns a ride's bookings ordered by creation time.
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*Booking, error)

	// ListByPassenger returns a passenger's bookings ordered by creation time.
	ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*Booking, error)
}
