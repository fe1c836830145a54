package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/ride"
)

type rideRepo struct {
	db *sql.DB
}

const rideColumns = `id, owner_id, source, destination, seats_total, seats_available,
	ride_date, start_time, end_time, gender_preference, version, created_at`

func (r *rideRepo) Create(ctx context.Context, rd *ride.Ride) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rides (
			id, owner_id, source, destination, seats_total, seats_available,
			ride_date, start_time, end_time, gender_preference, version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rd.ID, rd.OwnerID, rd.Source, rd.Destination, rd.SeatsTotal, rd.SeatsAvailable,
		rd.RideDate, rd.StartTime, rd.EndTime, string(rd.GenderPreference), rd.Version, rd.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ride: %w", err)
	}
	return nil
}

func (r *rideRepo) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	rd, err := scanRide(row)
	if err == sql.ErrNoRows {
		return nil, ride.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ride: %w", err)
	}
	return rd, nil
}

func (r *rideRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*ride.Ride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE owner_id = $1 ORDER BY ride_date, start_time`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing rides by owner: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

func (r *rideRepo) ListOpen(ctx context.Context, excludeOwner uuid.UUID, limit int) ([]*ride.Ride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE owner_id <> $1 ORDER BY ride_date, start_time LIMIT $2`,
		excludeOwner, limit)
	if err != nil {
		return nil, fmt.Errorf("listing open rides: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

// ReserveSeat decrements seats_available only when the caller's observed
// version still matches and a seat remains. Zero rows affected means a lost
// race, not an error.
func (r *rideRepo) ReserveSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rides
		SET seats_available = seats_available - 1, version = version + 1
		WHERE id = $1 AND version = $2 AND seats_available > 0
	`, id, version)
	if err != nil {
		return false, fmt.Errorf("conditional seat decrement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n == 1, nil
}

// ReleaseSeat is the symmetric guarded increment; it refuses to push
// seats_available past seats_total.
func (r *rideRepo) ReleaseSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rides
		SET seats_available = seats_available + 1, version = version + 1
		WHERE id = $1 AND version = $2 AND seats_available < seats_total
	`, id, version)
	if err != nil {
		return false, fmt.Errorf("conditional seat increment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n == 1, nil
}

// Delete removes the ride and its bookings, messages and ratings in one
// transaction.
func (r *rideRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM bookings WHERE ride_id = $1`,
		`DELETE FROM messages WHERE ride_id = $1`,
		`DELETE FROM ratings WHERE ride_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascading ride delete: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM rides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting ride: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return ride.ErrRideNotFound
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRide(row rowScanner) (*ride.Ride, error) {
	var rd ride.Ride
	var pref string
	var end sql.NullTime
	err := row.Scan(
		&rd.ID, &rd.OwnerID, &rd.Source, &rd.Destination,
		&rd.SeatsTotal, &rd.SeatsAvailable,
		&rd.RideDate, &rd.StartTime, &end, &pref, &rd.Version, &rd.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		rd.EndTime = &t
	}
	rd.GenderPreference = parseGender(pref)
	return &rd, nil
}

func collectRides(rows *sql.Rows) ([]*ride.Ride, error) {
	var out []*ride.Ride
	for rows.Next() {
		rd, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ride: %w", err)
		}
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rides: %w", err)
	}
	return out, nil
}
