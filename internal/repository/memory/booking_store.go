package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/booking"
)

type bookingStore struct {
	s *Store
}

func (bs *bookingStore) Create(ctx context.Context, b *booking.Booking) error {
	bs.s.mu.Lock()
	defer bs.s.mu.Unlock()
	for _, existing := range bs.s.bookings {
		if existing.RideID == b.RideID && existing.PassengerID == b.PassengerID {
			return booking.ErrDuplicateBooking
		}
	}
	cp := *b
	bs.s.bookings = append(bs.s.bookings, &cp)
	return nil
}

func (bs *bookingStore) Get(ctx context.Context, rideID, passengerID uuid.UUID) (*booking.Booking, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()
	for _, b := range bs.s.bookings {
		if b.RideID == rideID && b.PassengerID == passengerID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (bs *bookingStore) Delete(ctx context.Context, rideID, passengerID uuid.UUID) error {
	bs.s.mu.Lock()
	defer bs.s.mu.Unlock()
	for i, b := range bs.s.bookings {
		if b.RideID == rideID && b.PassengerID == passengerID {
			bs.s.bookings = append(bs.s.bookings[:i], bs.s.bookings[i+1:]...)
			return nil
		}
	}
	return booking.ErrBookingNotFound
}

func (bs *bookingStore) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*booking.Booking, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range bs.s.bookings {
		if b.RideID == rideID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (bs *bookingStore) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range bs.s.bookings {
		if b.PassengerID == passengerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}
