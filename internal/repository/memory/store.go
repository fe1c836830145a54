// Package memory provides in-process implementations of the repository
// contracts with the same conditional-write semantics as the PostgreSQL
// implementations. The service tests run their concurrent retry paths
// against these stores.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/message"
	"github.com/bikepool/bikepool/internal/domain/notification"
	"github.com/bikepool/bikepool/internal/domain/rating"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
)

// Store holds every table behind one mutex so the ride cascade delete is
// atomic, exactly like the transactional delete in the SQL implementation.
type Store struct {
	mu            sync.RWMutex
	rides         map[uuid.UUID]*ride.Ride
	bookings      []*booking.Booking
	ratings       []*rating.Rating
	messages      []*message.Message
	notifications []*notification.Notification
	users         map[uuid.UUID]*user.User
}

// New creates an empty store.
func New() *Store {
	return &Store{
		rides: make(map[uuid.UUID]*ride.Ride),
		users: make(map[uuid.UUID]*user.User),
	}
}

// Typed repository views.

func (s *Store) Rides() ride.Repository                 { return &rideStore{s} }
func (s *Store) Bookings() booking.Repository           { return &bookingStore{s} }
func (s *Store) Ratings() rating.Repository             { return &ratingStore{s} }
func (s *Store) Messages() message.Repository           { return &messageStore{s} }
func (s *Store) Notifications() notification.Repository { return &notificationStore{s} }
func (s *Store) Users() user.Repository                 { return &userStore{s} }

func copyRide(r *ride.Ride) *ride.Ride {
	cp := *r
	if r.EndTime != nil {
		end := *r.EndTime
		cp.EndTime = &end
	}
	return &cp
}
