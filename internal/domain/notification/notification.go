package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted message for a user, shown on their dashboard
// and optionally pushed to a live session.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrNotificationNotFound = errors.New("notification not found")

// Repository defines notification data access.
type Repository interface {
	Create(ctx context.Context, n *Notification) error

	// ListByUser returns a user's notifications, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Notification, error)

	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	MarkAllRead(ctx context.Context, userID uuid.UUID) error

	// Delete removes a notification owned by userID.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
