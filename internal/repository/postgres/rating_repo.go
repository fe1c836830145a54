package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/rating"
)

type ratingRepo struct {
	db *sql.DB
}

func (r *ratingRepo) Create(ctx context.Context, rt *rating.Rating) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratings (id, ride_id, passenger_id, value, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rt.ID, rt.RideID, rt.PassengerID, rt.Value, rt.Comments, rt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return rating.ErrDuplicateRating
		}
		return fmt.Errorf("inserting rating: %w", err)
	}
	return nil
}

func (r *ratingRepo) Get(ctx context.Context, rideID, passengerID uuid.UUID) (*rating.Rating, error) {
	var rt rating.Rating
	err := r.db.QueryRowContext(ctx, `
		SELECT id, ride_id, passenger_id, value, comments, created_at
		FROM ratings
		WHERE ride_id = $1 AND passenger_id = $2
	`, rideID, passengerID).Scan(&rt.ID, &rt.RideID, &rt.PassengerID, &rt.Value, &rt.Comments, &rt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rating.ErrRatingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying rating: %w", err)
	}
	return &rt, nil
}

func (r *ratingRepo) AverageForOwner(ctx context.Context, ownerID uuid.UUID) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT AVG(rt.value), COUNT(rt.value)
		FROM ratings rt
		JOIN rides r ON rt.ride_id = r.id
		WHERE r.owner_id = $1
	`, ownerID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("averaging ratings: %w", err)
	}
	if !avg.Valid {
		return 0, 0, nil
	}
	return avg.Float64, count, nil
}
