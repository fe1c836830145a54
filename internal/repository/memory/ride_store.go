package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/ride"
)

type rideStore struct {
	s *Store
}

func (rs *rideStore) Create(ctx context.Context, r *ride.Ride) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	rs.s.rides[r.ID] = copyRide(r)
	return nil
}

func (rs *rideStore) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	r, ok := rs.s.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	return copyRide(r), nil
}

func (rs *rideStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*ride.Ride, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	var out []*ride.Ride
	for _, r := range rs.s.rides {
		if r.OwnerID == ownerID {
			out = append(out, copyRide(r))
		}
	}
	sortBySchedule(out)
	return out, nil
}

func (rs *rideStore) ListOpen(ctx context.Context, excludeOwner uuid.UUID, limit int) ([]*ride.Ride, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	var out []*ride.Ride
	for _, r := range rs.s.rides {
		if r.OwnerID != excludeOwner {
			out = append(out, copyRide(r))
		}
	}
	sortBySchedule(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ReserveSeat applies the guarded decrement under the store lock, mirroring
// the single-statement conditional UPDATE of the SQL implementation.
func (rs *rideStore) ReserveSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	r, ok := rs.s.rides[id]
	if !ok {
		return false, ride.ErrRideNotFound
	}
	if r.Version != version || r.SeatsAvailable <= 0 {
		return false, nil
	}
	r.SeatsAvailable--
	r.Version++
	return true, nil
}

// ReleaseSeat applies the guarded increment; the guard also refuses to push
// SeatsAvailable past SeatsTotal.
func (rs *rideStore) ReleaseSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	r, ok := rs.s.rides[id]
	if !ok {
		return false, ride.ErrRideNotFound
	}
	if r.Version != version || r.SeatsAvailable >= r.SeatsTotal {
		return false, nil
	}
	r.SeatsAvailable++
	r.Version++
	return true, nil
}

// Delete removes the ride and everything hanging off it in one critical
// section; either all rows go or none do.
func (rs *rideStore) Delete(ctx context.Context, id uuid.UUID) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	if _, ok := rs.s.rides[id]; !ok {
		return ride.ErrRideNotFound
	}
	delete(rs.s.rides, id)

	kept := rs.s.bookings[:0]
	for _, b := range rs.s.bookings {
		if b.RideID != id {
			kept = append(kept, b)
		}
	}
	rs.s.bookings = kept

	keptMsgs := rs.s.messages[:0]
	for _, m := range rs.s.messages {
		if m.RideID != id {
			keptMsgs = append(keptMsgs, m)
		}
	}
	rs.s.messages = keptMsgs

	keptRatings := rs.s.ratings[:0]
	for _, r := range rs.s.ratings {
		if r.RideID != id {
			keptRatings = append(keptRatings, r)
		}
	}
	rs.s.ratings = keptRatings
	return nil
}

func sortBySchedule(rides []*ride.Ride) {
	sort.Slice(rides, func(i, j int) bool {
		si, _ := rides[i].Window()
		sj, _ := rides[j].Window()
		return si.Before(sj)
	})
}
