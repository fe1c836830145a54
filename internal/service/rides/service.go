// Package rides covers the ride lifecycle around the seat controller:
// posting, owner-initiated deletion with cascade, rating, and the dashboard
// queries.
package rides

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/rating"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/internal/notify"
	"github.com/bikepool/bikepool/pkg/logger"
)

var (
	// ErrNotRider rejects passengers trying to post or delete rides.
	ErrNotRider = errors.New("only riders can manage rides")

	// ErrNotRideOwner rejects riders touching rides they do not own.
	ErrNotRideOwner = errors.New("not the owner of this ride")

	// ErrRideCompleted rejects deletion or mutation of a completed ride.
	ErrRideCompleted = errors.New("ride has already completed")

	// ErrRideNotCompleted rejects rating a ride that has not finished.
	ErrRideNotCompleted = errors.New("ride has not completed yet")
)

// Service implements the ride lifecycle.
type Service struct {
	rides    ride.Repository
	bookings booking.Repository
	ratings  rating.Repository
	users    user.Repository
	notifier notify.Sink
	logger   *logger.Logger
	now      func() time.Time
}

// NewService wires the lifecycle service.
func NewService(rides ride.Repository, bookings booking.Repository, ratings rating.Repository, users user.Repository, notifier notify.Sink, log *logger.Logger) *Service {
	return &Service{
		rides:    rides,
		bookings: bookings,
		ratings:  ratings,
		users:    users,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
}

// PostInput carries a new ride's attributes.
type PostInput struct {
	Source           string
	Destination      string
	Seats            int
	RideDate         time.Time
	StartTime        time.Time
	EndTime          *time.Time
	GenderPreference user.Gender
}

// Post creates a ride owned by the caller. The ride must start in the future
// and offer at least one seat.
func (s *Service) Post(ctx context.Context, caller user.AuthContext, in PostInput) (*ride.Ride, error) {
	if !caller.IsRider {
		return nil, ErrNotRider
	}
	if in.Seats < 1 {
		return nil, ride.ErrInvalidSeats
	}
	pref := in.GenderPreference
	if pref == "" {
		pref = user.GenderAny
	}
	if !pref.IsValidPreference() {
		return nil, user.ErrInvalidGender
	}

	start, _ := ride.ActiveWindow(in.RideDate, in.StartTime, in.EndTime)
	if start.Before(s.now()) {
		return nil, ride.ErrRideInPast
	}

	r := &ride.Ride{
		ID:               uuid.New(),
		OwnerID:          caller.UserID,
		Source:           in.Source,
		Destination:      in.Destination,
		SeatsTotal:       in.Seats,
		SeatsAvailable:   in.Seats,
		RideDate:         in.RideDate,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		GenderPreference: pref,
		Version:          1,
		CreatedAt:        s.now(),
	}
	if err := s.rides.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("creating ride: %w", err)
	}

	s.logger.Info("Ride posted",
		logger.String("ride_id", r.ID.String()),
		logger.String("owner_id", r.OwnerID.String()),
		logger.Int("seats", r.SeatsTotal),
	)
	return r, nil
}

// Delete removes a ride the caller owns, notifying every booked passenger
// first and then cascading over bookings, messages and ratings atomically.
// A failed cascade leaves everything intact; at worst passengers received a
// notification for a ride that still exists.
func (s *Service) Delete(ctx context.Context, rideID uuid.UUID, caller user.AuthContext) error {
	if !caller.IsRider {
		return ErrNotRider
	}
	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if r.OwnerID != caller.UserID {
		return ErrNotRideOwner
	}
	if r.Completed(s.now()) {
		return ErrRideCompleted
	}

	bookings, err := s.bookings.ListByRide(ctx, rideID)
	if err != nil {
		return fmt.Errorf("listing bookings for delete: %w", err)
	}
	for _, b := range bookings {
		s.notifier.Notify(ctx, b.PassengerID,
			fmt.Sprintf("⚠️ Your ride from %s to %s was cancelled.", r.Source, r.Destination))
	}

	if err := s.rides.Delete(ctx, rideID); err != nil {
		return fmt.Errorf("deleting ride: %w", err)
	}

	s.logger.Info("Ride deleted",
		logger.String("ride_id", rideID.String()),
		logger.Int("bookings_cancelled", len(bookings)),
	)
	return nil
}

// Rate records a passenger's rating for a completed ride they booked.
func (s *Service) Rate(ctx context.Context, rideID uuid.UUID, caller user.AuthContext, value int, comments string) (*rating.Rating, error) {
	if caller.IsRider {
		return nil, ErrNotRider
	}
	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if _, err := s.bookings.Get(ctx, rideID, caller.UserID); err != nil {
		return nil, err
	}
	if !r.Completed(s.now()) {
		return nil, ErrRideNotCompleted
	}

	rt := &rating.Rating{
		ID:          uuid.New(),
		RideID:      rideID,
		PassengerID: caller.UserID,
		Value:       value,
		Comments:    comments,
		CreatedAt:   s.now(),
	}
	if !rt.Valid() {
		return nil, rating.ErrInvalidValue
	}
	if err := s.ratings.Create(ctx, rt); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, r.OwnerID,
		fmt.Sprintf("⭐ You received a %d-star rating!", value))
	return rt, nil
}

// RideView is a dashboard entry for one ride.
type RideView struct {
	Ride       *ride.Ride `json:"ride"`
	Owner      string     `json:"owner,omitempty"`
	Passengers []string   `json:"passengers,omitempty"`
	Completed  bool       `json:"completed"`
	Booked     bool       `json:"booked,omitempty"`
	Rated      bool       `json:"rated,omitempty"`
}

// RiderDashboard lists the caller's posted rides with their passengers, plus
// the caller's average rating.
type RiderDashboard struct {
	Rides       []*RideView `json:"rides"`
	AvgRating   float64     `json:"avg_rating"`
	RatingCount int         `json:"rating_count"`
}

func (s *Service) RiderDashboard(ctx context.Context, caller user.AuthContext) (*RiderDashboard, error) {
	if !caller.IsRider {
		return nil, ErrNotRider
	}
	owned, err := s.rides.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing owned rides: %w", err)
	}

	now := s.now()
	views := make([]*RideView, 0, len(owned))
	for _, r := range owned {
		bookings, err := s.bookings.ListByRide(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("listing bookings: %w", err)
		}
		var passengers []string
		for _, b := range bookings {
			u, err := s.users.GetByID(ctx, b.PassengerID)
			if err != nil {
				continue
			}
			passengers = append(passengers, u.Username)
		}
		views = append(views, &RideView{
			Ride:       r,
			Passengers: passengers,
			Completed:  r.Completed(now),
		})
	}

	avg, count, err := s.ratings.AverageForOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("computing average rating: %w", err)
	}
	return &RiderDashboard{Rides: views, AvgRating: avg, RatingCount: count}, nil
}

// PassengerDashboard lists rides the caller can book and rides they booked.
type PassengerDashboard struct {
	Available []*RideView `json:"available"`
	Booked    []*RideView `json:"booked"`
}

func (s *Service) PassengerDashboard(ctx context.Context, caller user.AuthContext) (*PassengerDashboard, error) {
	all, err := s.rides.ListOpen(ctx, caller.UserID, 50)
	if err != nil {
		return nil, fmt.Errorf("listing open rides: %w", err)
	}
	myBookings, err := s.bookings.ListByPassenger(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing passenger bookings: %w", err)
	}
	bookedIDs := make(map[uuid.UUID]bool, len(myBookings))
	for _, b := range myBookings {
		bookedIDs[b.RideID] = true
	}

	now := s.now()
	dash := &PassengerDashboard{}
	for _, r := range all {
		completed := r.Completed(now)
		view := &RideView{Ride: r, Completed: completed}
		if owner, err := s.users.GetByID(ctx, r.OwnerID); err == nil {
			view.Owner = owner.Username
		}

		if bookedIDs[r.ID] {
			view.Booked = true
			if _, err := s.ratings.Get(ctx, r.ID, caller.UserID); err == nil {
				view.Rated = true
			} else if err != rating.ErrRatingNotFound {
				return nil, fmt.Errorf("reading rating: %w", err)
			}
			dash.Booked = append(dash.Booked, view)
			continue
		}
		if !completed && r.SeatsAvailable > 0 {
			dash.Available = append(dash.Available, view)
		}
	}
	return dash, nil
}
