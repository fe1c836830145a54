package rides

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/message"
	"github.com/bikepool/bikepool/internal/domain/rating"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/internal/repository/memory"
	"github.com/bikepool/bikepool/pkg/logger"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type sinkStub struct {
	mu    sync.Mutex
	notes []string
	users []uuid.UUID
}

func (s *sinkStub) Notify(_ context.Context, userID uuid.UUID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, text)
	s.users = append(s.users, userID)
	return true
}

func newTestService(store *memory.Store, sink *sinkStub) *Service {
	s := NewService(store.Rides(), store.Bookings(), store.Ratings(), store.Users(), sink, logger.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}

func rider(t *testing.T, store *memory.Store, name string) user.AuthContext {
	t.Helper()
	u := &user.User{
		ID:       uuid.New(),
		Username: name,
		Email:    name + "@example.edu",
		Gender:   user.GenderMale,
		IsRider:  true,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return user.AuthContext{UserID: u.ID, Username: name, IsRider: true, Gender: u.Gender}
}

func passengerUser(t *testing.T, store *memory.Store, name string) user.AuthContext {
	t.Helper()
	u := &user.User{
		ID:       uuid.New(),
		Username: name,
		Email:    name + "@example.edu",
		Gender:   user.GenderFemale,
		IsRider:  false,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return user.AuthContext{UserID: u.ID, Username: name, IsRider: false, Gender: u.Gender}
}

func futureInput() PostInput {
	end := ride.ClockTime(10, 0)
	return PostInput{
		Source:      "Campus",
		Destination: "Downtown",
		Seats:       3,
		RideDate:    time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		StartTime:   ride.ClockTime(9, 0),
		EndTime:     &end,
	}
}

func seedRide(t *testing.T, store *memory.Store, owner uuid.UUID, date time.Time, startHour, endHour int) *ride.Ride {
	t.Helper()
	end := ride.ClockTime(endHour, 0)
	r := &ride.Ride{
		ID:               uuid.New(),
		OwnerID:          owner,
		Source:           "Campus",
		Destination:      "Downtown",
		SeatsTotal:       3,
		SeatsAvailable:   3,
		RideDate:         date,
		StartTime:        ride.ClockTime(startHour, 0),
		EndTime:          &end,
		GenderPreference: user.GenderAny,
		Version:          1,
		CreatedAt:        testNow,
	}
	require.NoError(t, store.Rides().Create(context.Background(), r))
	return r
}

func TestPost_Success(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	owner := rider(t, store, "alice")

	r, err := svc.Post(context.Background(), owner, futureInput())
	require.NoError(t, err)

	assert.Equal(t, owner.UserID, r.OwnerID)
	assert.Equal(t, 3, r.SeatsTotal)
	assert.Equal(t, 3, r.SeatsAvailable)
	assert.Equal(t, int64(1), r.Version)
	assert.Equal(t, user.GenderAny, r.GenderPreference)

	stored, err := store.Rides().GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, stored.ID)
}

func TestPost_RejectsPassengers(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	p := passengerUser(t, store, "bob")

	_, err := svc.Post(context.Background(), p, futureInput())
	assert.ErrorIs(t, err, ErrNotRider)
}

func TestPost_RejectsPastStart(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	owner := rider(t, store, "alice")

	in := futureInput()
	in.RideDate = time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC)

	_, err := svc.Post(context.Background(), owner, in)
	assert.ErrorIs(t, err, ride.ErrRideInPast)
}

func TestPost_RejectsZeroSeats(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	owner := rider(t, store, "alice")

	in := futureInput()
	in.Seats = 0

	_, err := svc.Post(context.Background(), owner, in)
	assert.ErrorIs(t, err, ride.ErrInvalidSeats)
}

func TestDelete_NotifiesPassengersThenCascades(t *testing.T) {
	store := memory.New()
	sink := &sinkStub{}
	svc := newTestService(store, sink)
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p1 := passengerUser(t, store, "bella")
	p2 := passengerUser(t, store, "carol")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), 9, 10)

	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: r.ID, PassengerID: p1.UserID, CreatedAt: testNow}))
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: r.ID, PassengerID: p2.UserID, CreatedAt: testNow}))
	require.NoError(t, store.Messages().Create(ctx, &message.Message{ID: uuid.New(), RideID: r.ID, SenderID: p1.UserID, Text: "see you there", CreatedAt: testNow}))

	require.NoError(t, svc.Delete(ctx, r.ID, owner))

	_, err := store.Rides().GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, ride.ErrRideNotFound)

	remaining, err := store.Bookings().ListByRide(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	msgs, err := store.Messages().ListByRide(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ElementsMatch(t, []uuid.UUID{p1.UserID, p2.UserID}, sink.users)
}

func TestDelete_RejectsNonOwner(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	other := rider(t, store, "dave")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), 9, 10)

	err := svc.Delete(ctx, r.ID, other)
	assert.ErrorIs(t, err, ErrNotRideOwner)

	_, err = store.Rides().GetByID(ctx, r.ID)
	assert.NoError(t, err)
}

func TestDelete_RejectsCompletedRide(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), 7, 8)

	err := svc.Delete(ctx, r.ID, owner)
	assert.ErrorIs(t, err, ErrRideCompleted)
}

func TestRate_Success(t *testing.T) {
	store := memory.New()
	sink := &sinkStub{}
	svc := newTestService(store, sink)
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p := passengerUser(t, store, "bella")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), 7, 8)
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: r.ID, PassengerID: p.UserID, CreatedAt: testNow}))

	rt, err := svc.Rate(ctx, r.ID, p, 5, "smooth ride")
	require.NoError(t, err)
	assert.Equal(t, 5, rt.Value)

	avg, count, err := store.Ratings().AverageForOwner(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, count)

	require.Len(t, sink.users, 1)
	assert.Equal(t, owner.UserID, sink.users[0])
}

func TestRate_RequiresBooking(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p := passengerUser(t, store, "bella")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), 7, 8)

	_, err := svc.Rate(ctx, r.ID, p, 4, "")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestRate_RequiresCompletedRide(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p := passengerUser(t, store, "bella")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), 9, 10)
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: r.ID, PassengerID: p.UserID, CreatedAt: testNow}))

	_, err := svc.Rate(ctx, r.ID, p, 4, "")
	assert.ErrorIs(t, err, ErrRideNotCompleted)
}

func TestRate_RejectsOutOfRangeValue(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p := passengerUser(t, store, "bella")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), 7, 8)
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: r.ID, PassengerID: p.UserID, CreatedAt: testNow}))

	_, err := svc.Rate(ctx, r.ID, p, 6, "")
	assert.ErrorIs(t, err, rating.ErrInvalidValue)
}

func TestRate_DuplicateRejected(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p := passengerUser(t, store, "bella")
	r := seedRide(t, store, owner.UserID, time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), 7, 8)
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: r.ID, PassengerID: p.UserID, CreatedAt: testNow}))

	_, err := svc.Rate(ctx, r.ID, p, 5, "")
	require.NoError(t, err)

	_, err = svc.Rate(ctx, r.ID, p, 3, "")
	assert.ErrorIs(t, err, rating.ErrDuplicateRating)
}

func TestRiderDashboard(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p := passengerUser(t, store, "bella")

	past := seedRide(t, store, owner.UserID, time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), 7, 8)
	seedRide(t, store, owner.UserID, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), 9, 10)

	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: past.ID, PassengerID: p.UserID, CreatedAt: testNow}))
	require.NoError(t, store.Ratings().Create(ctx, &rating.Rating{ID: uuid.New(), RideID: past.ID, PassengerID: p.UserID, Value: 4, CreatedAt: testNow}))

	dash, err := svc.RiderDashboard(ctx, owner)
	require.NoError(t, err)

	require.Len(t, dash.Rides, 2)
	assert.Equal(t, 4.0, dash.AvgRating)
	assert.Equal(t, 1, dash.RatingCount)

	var completedView *RideView
	for _, v := range dash.Rides {
		if v.Ride.ID == past.ID {
			completedView = v
		}
	}
	require.NotNil(t, completedView)
	assert.True(t, completedView.Completed)
	assert.Equal(t, []string{"bella"}, completedView.Passengers)
}

func TestPassengerDashboard(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	p := passengerUser(t, store, "bella")

	open := seedRide(t, store, owner.UserID, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), 9, 10)
	booked := seedRide(t, store, owner.UserID, time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC), 9, 10)
	rated := seedRide(t, store, owner.UserID, time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), 7, 8)
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: booked.ID, PassengerID: p.UserID, CreatedAt: testNow}))
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{RideID: rated.ID, PassengerID: p.UserID, CreatedAt: testNow}))
	require.NoError(t, store.Ratings().Create(ctx, &rating.Rating{ID: uuid.New(), RideID: rated.ID, PassengerID: p.UserID, Value: 5, CreatedAt: testNow}))

	dash, err := svc.PassengerDashboard(ctx, p)
	require.NoError(t, err)

	require.Len(t, dash.Available, 1)
	assert.Equal(t, open.ID, dash.Available[0].Ride.ID)
	assert.Equal(t, "alice", dash.Available[0].Owner)

	require.Len(t, dash.Booked, 2)
	byID := make(map[uuid.UUID]*RideView)
	for _, v := range dash.Booked {
		byID[v.Ride.ID] = v
	}
	require.Contains(t, byID, booked.ID)
	assert.True(t, byID[booked.ID].Booked)
	assert.False(t, byID[booked.ID].Rated, "an unrated booking stays unrated")
	require.Contains(t, byID, rated.ID)
	assert.True(t, byID[rated.ID].Rated)
}

func TestPassengerDashboard_ExcludesOwnRides(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &sinkStub{})
	ctx := context.Background()

	owner := rider(t, store, "alice")
	seedRide(t, store, owner.UserID, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), 9, 10)

	dash, err := svc.PassengerDashboard(ctx, user.AuthContext{UserID: owner.UserID, Username: "alice", Gender: user.GenderMale})
	require.NoError(t, err)
	assert.Empty(t, dash.Available)
	assert.Empty(t, dash.Booked)
}
