package rating

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rating is a passenger's score for a completed ride. One per
// (ride, passenger).
type Rating struct {
	ID          uuid.UUID `json:"id"`
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	Value       int       `json:"value"`
	Comments    string    `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrRatingNotFound  = errors.New("rating not found")
	ErrDuplicateRating = errors.New("ride already rated by this passenger")
	ErrInvalidValue    = errors.New("rating must be between 1 and 5")
)

// Valid reports whether the rating value is in range.
func (r *Rating) Valid() bool {
	return r.Value >= 1 && r.Value <= 5
}

// Repository defines rating data access.
type Repository interface {
	// Create inserts a rating. Returns ErrDuplicateRating if the passenger
	// already rated the ride.
	Create(ctx context.Context, r *Rating) error

	// Get retrieves the rating for (ride, passenger). Returns
	// ErrRatingNotFound if none exists.
	Get(ctx context.Context, rideID, passengerID uuid.UUID) (*Rating, error)

	// AverageForOwner returns the mean rating value and rating count across
	// all rides posted by ownerID. Zero values when unrated.
	AverageForOwner(ctx context.Context, ownerID uuid.UUID) (avg float64, count int, err error)
}
