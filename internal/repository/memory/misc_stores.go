package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/message"
	"github.com/bikepool/bikepool/internal/domain/notification"
	"github.com/bikepool/bikepool/internal/domain/rating"
	"github.com/bikepool/bikepool/internal/domain/user"
)

type ratingStore struct {
	s *Store
}

func (rs *ratingStore) Create(ctx context.Context, r *rating.Rating) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	for _, existing := range rs.s.ratings {
		if existing.RideID == r.RideID && existing.PassengerID == r.PassengerID {
			return rating.ErrDuplicateRating
		}
	}
	cp := *r
	rs.s.ratings = append(rs.s.ratings, &cp)
	return nil
}

func (rs *ratingStore) Get(ctx context.Context, rideID, passengerID uuid.UUID) (*rating.Rating, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	for _, r := range rs.s.ratings {
		if r.RideID == rideID && r.PassengerID == passengerID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, rating.ErrRatingNotFound
}

func (rs *ratingStore) AverageForOwner(ctx context.Context, ownerID uuid.UUID) (float64, int, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	owned := make(map[uuid.UUID]bool)
	for id, r := range rs.s.rides {
		if r.OwnerID == ownerID {
			owned[id] = true
		}
	}
	total, count := 0, 0
	for _, r := range rs.s.ratings {
		if owned[r.RideID] {
			total += r.Value
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(total) / float64(count), count, nil
}

type messageStore struct {
	s *Store
}

func (ms *messageStore) Create(ctx context.Context, m *message.Message) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	cp := *m
	ms.s.messages = append(ms.s.messages, &cp)
	return nil
}

func (ms *messageStore) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*message.Message, error) {
	ms.s.mu.RLock()
	defer ms.s.mu.RUnlock()
	var out []*message.Message
	for _, m := range ms.s.messages {
		if m.RideID == rideID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type notificationStore struct {
	s *Store
}

func (ns *notificationStore) Create(ctx context.Context, n *notification.Notification) error {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	cp := *n
	// Newest first, matching the SQL implementation's ORDER BY.
	ns.s.notifications = append([]*notification.Notification{&cp}, ns.s.notifications...)
	return nil
}

func (ns *notificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	ns.s.mu.RLock()
	defer ns.s.mu.RUnlock()
	var out []*notification.Notification
	for _, n := range ns.s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (ns *notificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	ns.s.mu.RLock()
	defer ns.s.mu.RUnlock()
	count := 0
	for _, n := range ns.s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (ns *notificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	for _, n := range ns.s.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (ns *notificationStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	for i, n := range ns.s.notifications {
		if n.ID == id && n.UserID == userID {
			ns.s.notifications = append(ns.s.notifications[:i], ns.s.notifications[i+1:]...)
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

type userStore struct {
	s *Store
}

func (us *userStore) Create(ctx context.Context, u *user.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	for _, existing := range us.s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return user.ErrUsernameTaken
		}
	}
	cp := *u
	us.s.users[u.ID] = &cp
	return nil
}

func (us *userStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()
	u, ok := us.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (us *userStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()
	for _, u := range us.s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (us *userStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := us.GetByUsername(ctx, username)
	if err == user.ErrUserNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
