package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/notification"
	"github.com/bikepool/bikepool/pkg/logger"
)

// Sink receives best-effort events from the booking controller. A sink must
// never fail or block the operation that emits through it.
type Sink interface {
	Notify(ctx context.Context, userID uuid.UUID, text string) bool
}

// Broadcaster pushes a payload to a user's live sessions. The websocket hub
// satisfies this.
type Broadcaster interface {
	SendToUser(userID string, message interface{})
}

// Service persists notifications and then pushes them to live sessions.
// Persistence comes first so the notification can later be listed and marked
// read even if no session is connected.
type Service struct {
	store  notification.Repository
	hub    Broadcaster
	logger *logger.Logger
}

// NewService creates a notification service. hub may be nil (no live push).
func NewService(store notification.Repository, hub Broadcaster, log *logger.Logger) *Service {
	return &Service{store: store, hub: hub, logger: log}
}

// Notify persists a notification for userID and pushes it to any live
// session. Returns false and logs when persistence fails; never panics or
// propagates.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, text string) bool {
	n := &notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   text,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Error("Failed to persist notification",
			logger.String("user_id", userID.String()),
			logger.Err(err),
		)
		return false
	}

	if s.hub != nil {
		// Emit after the write so clients can reference the stored id.
		s.hub.SendToUser(userID.String(), map[string]interface{}{
			"type": "new_notification",
			"data": map[string]interface{}{
				"notification_id": n.ID.String(),
				"message":         n.Message,
				"timestamp":       n.CreatedAt.Format("15:04"),
			},
		})
	}
	return true
}
