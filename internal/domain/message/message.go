package message

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message is a chat message within a ride's room. Delivery to live sessions
// is best-effort; the record here is the source of truth.
type Message struct {
	ID        uuid.UUID `json:"id"`
	RideID    uuid.UUID `json:"ride_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines message data access.
type Repository interface {
	Create(ctx context.Context, m *Message) error

	// ListByRide returns a ride's messages in chronological order.
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*Message, error)
}
