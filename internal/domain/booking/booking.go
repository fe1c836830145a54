package booking

import (
	"time"

	"github.com/google/uuid"
)

// Booking is a passenger's reservation of one seat on a ride, identified by
// the composite (RideID, PassengerID). At most one exists per pair; one may
// only come into existence through a successful seat decrement.
type Booking struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	CreatedAt   time.Time `json:"created_at"`
}
