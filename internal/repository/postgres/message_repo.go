package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/message"
)

type messageRepo struct {
	db *sql.DB
}

func (r *messageRepo) Create(ctx context.Context, m *message.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, ride_id, sender_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.RideID, m.SenderID, m.Text, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func (r *messageRepo) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*message.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ride_id, sender_id, text, created_at
		FROM messages
		WHERE ride_id = $1
		ORDER BY created_at
	`, rideID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var out []*message.Message
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(&m.ID, &m.RideID, &m.SenderID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return out, nil
}
