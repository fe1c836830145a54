package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/booking"
)

type bookingRepo struct {
	db *sql.DB
}

// Create relies on the (ride_id, passenger_id) unique constraint as the last
// line of defense against double booking.
func (r *bookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (ride_id, passenger_id, created_at)
		VALUES ($1, $2, $3)
	`, b.RideID, b.PassengerID, b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return booking.ErrDuplicateBooking
		}
		return fmt.Errorf("inserting booking: %w", err)
	}
	return nil
}

func (r *bookingRepo) Get(ctx context.Context, rideID, passengerID uuid.UUID) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.QueryRowContext(ctx, `
		SELECT ride_id, passenger_id, created_at
		FROM bookings
		WHERE ride_id = $1 AND passenger_id = $2
	`, rideID, passengerID).Scan(&b.RideID, &b.PassengerID, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}
	return &b, nil
}

func (r *bookingRepo) Delete(ctx context.Context, rideID, passengerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM bookings WHERE ride_id = $1 AND passenger_id = $2
	`, rideID, passengerID)
	if err != nil {
		return fmt.Errorf("deleting booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

func (r *bookingRepo) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ride_id, passenger_id, created_at
		FROM bookings
		WHERE ride_id = $1
		ORDER BY created_at
	`, rideID)
	if err != nil {
		return nil, fmt.Errorf("listing bookings by ride: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepo) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ride_id, passenger_id, created_at
		FROM bookings
		WHERE passenger_id = $1
		ORDER BY created_at
	`, passengerID)
	if err != nil {
		return nil, fmt.Errorf("listing bookings by passenger: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for rows.Next() {
		var b booking.Booking
		if err := rows.Scan(&b.RideID, &b.PassengerID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}
	return out, nil
}
