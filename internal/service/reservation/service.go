// Package reservation implements the seat-booking concurrency controller.
// Seat counts are only ever mutated through version-guarded conditional
// writes; on a lost race the controller re-reads the ride, re-checks every
// precondition and retries with linear backoff up to a bound.
package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/internal/notify"
	"github.com/bikepool/bikepool/pkg/logger"
	"github.com/bikepool/bikepool/pkg/mailer"
)

const (
	DefaultMaxRetries  = 4
	DefaultBackoffBase = 80 * time.Millisecond
)

// Config bounds the optimistic retry loop.
type Config struct {
	MaxRetries  int
	BackoffBase time.Duration
}

// Sleeper waits for d or until ctx is done. Injectable so tests can run the
// full retry path without wall-clock delay.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Enqueuer queues an outbound email without blocking.
type Enqueuer interface {
	Enqueue(msg mailer.Message) bool
}

// Metrics receives contention telemetry. pkg/monitoring satisfies this; nil
// disables recording.
type Metrics interface {
	RecordVersionConflict(rideID string)
}

// Status is the success outcome of a reservation.
type Status string

const (
	StatusBooked        Status = "booked"
	StatusAlreadyBooked Status = "already_booked"
)

// Result reports a successful reservation and how many attempts it took.
type Result struct {
	Status   Status
	Attempts int
}

// Service orchestrates seat reservation and release for rides.
type Service struct {
	rides    ride.Repository
	bookings booking.Repository
	notifier notify.Sink
	mail     Enqueuer
	users    user.Repository
	metrics  Metrics
	logger   *logger.Logger
	cfg      Config
	sleep    Sleeper
	now      func() time.Time
}

// NewService creates the controller. mail and users may be nil, in which case
// no confirmation emails go out; metrics may be nil.
func NewService(rides ride.Repository, bookings booking.Repository, notifier notify.Sink, mail Enqueuer, users user.Repository, metrics Metrics, log *logger.Logger, cfg Config) *Service {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	return &Service{
		rides:    rides,
		bookings: bookings,
		notifier: notifier,
		mail:     mail,
		users:    users,
		metrics:  metrics,
		logger:   log,
		cfg:      cfg,
		sleep:    defaultSleeper,
		now:      time.Now,
	}
}

// Reserve books one seat on a ride for the caller.
//
// Preconditions are re-checked on every attempt against a fresh read of the
// ride; a copy held across a lost race is never trusted. An existing booking
// for the caller is an idempotent success, not an error.
func (s *Service) Reserve(ctx context.Context, rideID uuid.UUID, caller user.AuthContext) (*Result, error) {
	if caller.IsRider {
		return nil, ErrNotPassenger
	}

	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		r, err := s.rides.GetByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if !r.AcceptsPassenger(caller.Gender) {
			return nil, ErrGenderPreference
		}
		if r.Completed(s.now()) {
			return nil, ErrRideCompleted
		}
		if _, err := s.bookings.Get(ctx, rideID, caller.UserID); err == nil {
			return &Result{Status: StatusAlreadyBooked, Attempts: attempt}, nil
		} else if err != booking.ErrBookingNotFound {
			return nil, fmt.Errorf("checking existing booking: %w", err)
		}
		if r.SeatsAvailable <= 0 {
			return nil, ride.ErrRideFull
		}

		applied, err := s.rides.ReserveSeat(ctx, rideID, r.Version)
		if err != nil {
			// Infrastructure failure, not contention: abort without retrying.
			return nil, fmt.Errorf("conditional seat decrement: %w", err)
		}
		if !applied {
			s.recordConflict(rideID)
			s.logger.Info("Concurrent seat update detected, retrying",
				logger.String("ride_id", rideID.String()),
				logger.Int("attempt", attempt),
			)
			if err := s.sleep(ctx, s.cfg.BackoffBase*time.Duration(attempt)); err != nil {
				return nil, ErrHighContention
			}
			continue
		}

		b := &booking.Booking{RideID: rideID, PassengerID: caller.UserID, CreatedAt: s.now()}
		if err := s.bookings.Create(ctx, b); err != nil {
			// The decrement already landed; give the seat back before
			// reporting anything to the caller.
			s.compensateRelease(ctx, rideID)
			if err == booking.ErrDuplicateBooking {
				return &Result{Status: StatusAlreadyBooked, Attempts: attempt}, nil
			}
			return nil, fmt.Errorf("creating booking: %w", err)
		}

		// Side effects stay outside the critical section and never fail
		// the booking.
		s.notifyReserved(ctx, r, caller)

		return &Result{Status: StatusBooked, Attempts: attempt}, nil
	}

	s.logger.Warn("Reservation gave up after retry budget",
		logger.String("ride_id", rideID.String()),
		logger.Int("max_retries", s.cfg.MaxRetries),
	)
	return nil, ErrHighContention
}

// Release cancels the caller's booking and returns the seat.
//
// The seat increment goes through the same conditional-write discipline as
// reservation, so a cancellation racing a booking can never push the seat
// count past the ride's capacity. If the increment cannot be applied, the
// already-deleted booking is reinstated so a failed cancellation leaves the
// passenger booked and the call retryable.
func (s *Service) Release(ctx context.Context, rideID uuid.UUID, caller user.AuthContext) error {
	if caller.IsRider {
		return ErrNotPassenger
	}

	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if r.Completed(s.now()) {
		// No refunds after the fact.
		return ErrRideCompleted
	}
	b, err := s.bookings.Get(ctx, rideID, caller.UserID)
	if err != nil {
		if err == booking.ErrBookingNotFound {
			return err
		}
		return fmt.Errorf("reading booking: %w", err)
	}
	if err := s.bookings.Delete(ctx, rideID, caller.UserID); err != nil {
		if err == booking.ErrBookingNotFound {
			return err
		}
		return fmt.Errorf("deleting booking: %w", err)
	}

	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		r, err := s.rides.GetByID(ctx, rideID)
		if err != nil {
			s.restoreBooking(ctx, b)
			return fmt.Errorf("re-reading ride for seat release: %w", err)
		}
		applied, err := s.rides.ReleaseSeat(ctx, rideID, r.Version)
		if err != nil {
			s.restoreBooking(ctx, b)
			return fmt.Errorf("conditional seat increment: %w", err)
		}
		if applied {
			s.notifier.Notify(ctx, r.OwnerID,
				fmt.Sprintf("😔 %s cancelled their booking.", caller.Username))
			return nil
		}
		s.recordConflict(rideID)
		s.logger.Info("Concurrent seat update during cancellation, retrying",
			logger.String("ride_id", rideID.String()),
			logger.Int("attempt", attempt),
		)
		if err := s.sleep(ctx, s.cfg.BackoffBase*time.Duration(attempt)); err != nil {
			s.restoreBooking(ctx, b)
			return ErrHighContention
		}
	}

	s.restoreBooking(ctx, b)
	s.logger.Error("Seat not returned after cancellation, retry budget exhausted",
		logger.String("ride_id", rideID.String()),
		logger.String("passenger_id", caller.UserID.String()),
	)
	return ErrHighContention
}

func (s *Service) recordConflict(rideID uuid.UUID) {
	if s.metrics != nil {
		s.metrics.RecordVersionConflict(rideID.String())
	}
}

// restoreBooking reinstates a booking whose seat increment could not be
// applied, keeping booking rows and seat counts consistent. A duplicate means
// the passenger re-booked concurrently, which is the same end state.
func (s *Service) restoreBooking(ctx context.Context, b *booking.Booking) {
	if err := s.bookings.Create(ctx, b); err != nil && err != booking.ErrDuplicateBooking {
		s.logger.Error("Failed to reinstate booking after unreturned seat",
			logger.String("ride_id", b.RideID.String()),
			logger.String("passenger_id", b.PassengerID.String()),
			logger.Err(err),
		)
	}
}

// compensateRelease undoes an applied seat decrement whose booking insert was
// rejected. Best-effort: a leaked seat is logged loudly rather than surfaced.
func (s *Service) compensateRelease(ctx context.Context, rideID uuid.UUID) {
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		r, err := s.rides.GetByID(ctx, rideID)
		if err != nil {
			break
		}
		applied, err := s.rides.ReleaseSeat(ctx, rideID, r.Version)
		if err != nil {
			break
		}
		if applied {
			return
		}
		if s.sleep(ctx, s.cfg.BackoffBase*time.Duration(attempt)) != nil {
			break
		}
	}
	s.logger.Error("Failed to return seat after rejected booking insert",
		logger.String("ride_id", rideID.String()),
	)
}

func (s *Service) notifyReserved(ctx context.Context, r *ride.Ride, caller user.AuthContext) {
	s.notifier.Notify(ctx, r.OwnerID,
		fmt.Sprintf("🎉 %s booked a seat on your ride to %s!", caller.Username, r.Destination))

	if s.mail == nil || s.users == nil {
		return
	}
	passenger, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		s.logger.Warn("Skipping confirmation email, passenger lookup failed",
			logger.String("passenger_id", caller.UserID.String()),
			logger.Err(err),
		)
		return
	}
	start, _ := r.Window()
	s.mail.Enqueue(mailer.Message{
		To:      passenger.Email,
		Subject: "Booking Confirmed - BikePool",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your seat on the ride from %s to %s on %s is confirmed.</p>",
			passenger.Username, r.Source, r.Destination, start.Format("Mon, 02 Jan 2006 15:04"),
		),
	})
}
