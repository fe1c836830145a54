package ride

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines ride data access. ReserveSeat and ReleaseSeat are the
// only operations allowed to touch SeatsAvailable or Version.
type Repository interface {
	// Create persists a new ride.
	Create(ctx context.Context, r *Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)

	// ListByOwner returns a rider's posted rides ordered by schedule.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Ride, error)

	// ListOpen returns rides posted by other users, ordered by schedule.
	ListOpen(ctx context.Context, excludeOwner uuid.UUID, limit int) ([]*Ride, error)

	// ReserveSeat atomically decrements SeatsAvailable and increments
	// Version, guarded by Version == version AND SeatsAvailable > 0.
	// It reports whether the write was applied.
	ReserveSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error)

	// ReleaseSeat atomically increments SeatsAvailable and increments
	// Version, guarded by Version == version AND SeatsAvailable < SeatsTotal.
	// It reports whether the write was applied.
	ReleaseSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error)

	// Delete removes a ride and cascades over its bookings, messages and
	// ratings atomically. A failure leaves everything intact.
	Delete(ctx context.Context, id uuid.UUID) error
}
