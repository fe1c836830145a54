package ride

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/user"
)

// Ride represents a posted ride with a finite number of seats. SeatsAvailable
// and Version only ever change together, through the repository's
// version-guarded conditional writes.
type Ride struct {
	ID               uuid.UUID   `json:"id"`
	OwnerID          uuid.UUID   `json:"owner_id"`
	Source           string      `json:"source"`
	Destination      string      `json:"destination"`
	SeatsTotal       int         `json:"seats_total"`
	SeatsAvailable   int         `json:"seats_available"`
	RideDate         time.Time   `json:"ride_date"`
	StartTime        time.Time   `json:"start_time"`
	EndTime          *time.Time  `json:"end_time,omitempty"`
	GenderPreference user.Gender `json:"gender_preference"`
	Version          int64       `json:"version"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Errors
var (
	ErrRideNotFound = errors.New("ride not found")
	ErrRideFull     = errors.New("ride is full")
	ErrRideInPast   = errors.New("ride starts in the past")
	ErrInvalidSeats = errors.New("seats must be at least 1")
)

// AcceptsPassenger checks the ride's gender preference against a passenger.
func (r *Ride) AcceptsPassenger(g user.Gender) bool {
	return r.GenderPreference == user.GenderAny || r.GenderPreference == g
}

// Window returns the ride's active window instants.
func (r *Ride) Window() (start, end time.Time) {
	return ActiveWindow(r.RideDate, r.StartTime, r.EndTime)
}

// Completed reports whether the ride's active window has passed.
// A ride is active/future iff now <= end.
func (r *Ride) Completed(now time.Time) bool {
	_, end := r.Window()
	return now.After(end)
}
