package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/internal/repository/memory"
	"github.com/bikepool/bikepool/pkg/logger"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// sinkStub records notifications without any real side channel.
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

func (s *sinkStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// sleepRecorder captures backoff durations and returns immediately so tests
// run the full retry path without wall-clock delay.
type sleepRecorder struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (sr *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	sr.mu.Lock()
	sr.durations = append(sr.durations, d)
	sr.mu.Unlock()
	return ctx.Err()
}

func (sr *sleepRecorder) count() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return len(sr.durations)
}

func newTestService(store *memory.Store, sink *sinkStub) (*Service, *sleepRecorder) {
	sr := &sleepRecorder{}
	s := NewService(store.Rides(), store.Bookings(), sink, nil, nil, nil, logger.NewNop(), Config{
		MaxRetries:  4,
		BackoffBase: 80 * time.Millisecond,
	})
	s.sleep = sr.sleep
	s.now = func() time.Time { return testNow }
	return s, sr
}

func testRide(t *testing.T, store *memory.Store, owner uuid.UUID, seats int) *ride.Ride {
	t.Helper()
	end := ride.ClockTime(10, 0)
	r := &ride.Ride{
		ID:               uuid.New(),
		OwnerID:          owner,
		Source:           "Campus",
		Destination:      "Downtown",
		SeatsTotal:       seats,
		SeatsAvailable:   seats,
		RideDate:         time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		StartTime:        ride.ClockTime(9, 0),
		EndTime:          &end,
		GenderPreference: user.GenderAny,
		Version:          1,
		CreatedAt:        testNow,
	}
	require.NoError(t, store.Rides().Create(context.Background(), r))
	return r
}

func completedRide(t *testing.T, store *memory.Store, owner uuid.UUID, seats int) *ride.Ride {
	t.Helper()
	end := ride.ClockTime(8, 0)
	r := &ride.Ride{
		ID:               uuid.New(),
		OwnerID:          owner,
		Source:           "Campus",
		Destination:      "Downtown",
		SeatsTotal:       seats,
		SeatsAvailable:   seats,
		RideDate:         time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC),
		StartTime:        ride.ClockTime(7, 0),
		EndTime:          &end,
		GenderPreference: user.GenderAny,
		Version:          1,
		CreatedAt:        testNow,
	}
	require.NoError(t, store.Rides().Create(context.Background(), r))
	return r
}

func passenger(name string) user.AuthContext {
	return user.AuthContext{
		UserID:   uuid.New(),
		Username: name,
		Gender:   user.GenderFemale,
	}
}

func TestReserve_Success(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sink := &sinkStub{}
	svc, _ := newTestService(store, sink)
	owner := uuid.New()
	r := testRide(t, store, owner, 3)

	res, err := svc.Reserve(ctx, r.ID, passenger("alice"))
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, res.Status)
	assert.Equal(t, 1, res.Attempts)

	got, err := store.Rides().GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SeatsAvailable)
	assert.Equal(t, int64(2), got.Version, "version bumps exactly once per applied mutation")

	bookings, err := store.Bookings().ListByRide(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, owner, sink.users[0], "owner gets the booking notification")
}

func TestReserve_IdempotentForSamePassenger(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 3)
	p := passenger("alice")

	first, err := svc.Reserve(ctx, r.ID, p)
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, first.Status)

	second, err := svc.Reserve(ctx, r.ID, p)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyBooked, second.Status, "a repeat reserve is a no-op success")

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 2, got.SeatsAvailable, "repeat reserve must not change seats")
	assert.Equal(t, int64(2), got.Version)

	bookings, _ := store.Bookings().ListByRide(ctx, r.ID)
	assert.Len(t, bookings, 1)
}

func TestReserve_RideFullOnZeroSeats(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, sr := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 0)

	_, err := svc.Reserve(ctx, r.ID, passenger("alice"))
	assert.ErrorIs(t, err, ride.ErrRideFull)
	assert.Equal(t, 0, sr.count(), "a full ride fails fast, no retries")
}

func TestReserve_GenderPreferenceRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 2)
	r.GenderPreference = user.GenderMale
	require.NoError(t, store.Rides().Create(ctx, r))

	p := passenger("alice") // female
	_, err := svc.Reserve(ctx, r.ID, p)
	assert.ErrorIs(t, err, ErrGenderPreference)

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 2, got.SeatsAvailable)
}

func TestReserve_CompletedRideRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := completedRide(t, store, uuid.New(), 2)

	_, err := svc.Reserve(ctx, r.ID, passenger("alice"))
	assert.ErrorIs(t, err, ErrRideCompleted)
}

func TestReserve_RideNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(memory.New(), &sinkStub{})

	_, err := svc.Reserve(ctx, uuid.New(), passenger("alice"))
	assert.ErrorIs(t, err, ride.ErrRideNotFound)
}

func TestReserve_RiderCannotBook(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 2)

	caller := passenger("bob")
	caller.IsRider = true
	_, err := svc.Reserve(ctx, r.ID, caller)
	assert.ErrorIs(t, err, ErrNotPassenger)
}

func TestReserve_ConcurrentCallersNeverOverbook(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	const seats = 3
	const callers = 20
	r := testRide(t, store, uuid.New(), seats)

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		p := passenger(fmt.Sprintf("p%d", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(ctx, r.ID, p)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	booked := 0
	for err := range results {
		if err == nil {
			booked++
			continue
		}
		if !errors.Is(err, ride.ErrRideFull) && !errors.Is(err, ErrHighContention) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, seats, booked, "successful reservations never exceed capacity")

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 0, got.SeatsAvailable)
	assert.GreaterOrEqual(t, got.SeatsAvailable, 0, "seats never go negative")
	assert.Equal(t, int64(1+seats), got.Version, "version advanced once per applied decrement")

	bookings, _ := store.Bookings().ListByRide(ctx, r.ID)
	assert.Len(t, bookings, seats)
}

func TestReserve_OneSeatTwoCallers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		p := passenger(fmt.Sprintf("p%d", i))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(ctx, r.ID, p)
		}(i)
	}
	wg.Wait()

	winners, fullErrs := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ride.ErrRideFull):
			// The precondition re-check catches the loser, so it sees a
			// full ride rather than giving up on contention.
			fullErrs++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, fullErrs)
}

// metricsRecorder counts contention telemetry.
type metricsRecorder struct {
	mu        sync.Mutex
	conflicts int
}

func (m *metricsRecorder) RecordVersionConflict(string) {
	m.mu.Lock()
	m.conflicts++
	m.mu.Unlock()
}

func (m *metricsRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflicts
}

// seatRepoStub lets tests force conditional-write outcomes.
type seatRepoStub struct {
	ride.Repository
	reserveErr        error
	neverApply        bool
	releaseNeverApply bool

	mu           sync.Mutex
	reserveCalls int
	releaseCalls int
}

func (s *seatRepoStub) ReserveSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error) {
	s.mu.Lock()
	s.reserveCalls++
	s.mu.Unlock()
	if s.reserveErr != nil {
		return false, s.reserveErr
	}
	if s.neverApply {
		return false, nil
	}
	return s.Repository.ReserveSeat(ctx, id, version)
}

func (s *seatRepoStub) ReleaseSeat(ctx context.Context, id uuid.UUID, version int64) (bool, error) {
	s.mu.Lock()
	s.releaseCalls++
	s.mu.Unlock()
	if s.releaseNeverApply {
		return false, nil
	}
	return s.Repository.ReleaseSeat(ctx, id, version)
}

func TestReserve_HighContentionAfterRetryBudget(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := testRide(t, store, uuid.New(), 2)

	stub := &seatRepoStub{Repository: store.Rides(), neverApply: true}
	sr := &sleepRecorder{}
	metrics := &metricsRecorder{}
	svc := NewService(stub, store.Bookings(), &sinkStub{}, nil, nil, metrics, logger.NewNop(), Config{
		MaxRetries:  4,
		BackoffBase: 80 * time.Millisecond,
	})
	svc.sleep = sr.sleep
	svc.now = func() time.Time { return testNow }

	_, err := svc.Reserve(ctx, r.ID, passenger("alice"))
	assert.ErrorIs(t, err, ErrHighContention)
	assert.Equal(t, 4, stub.reserveCalls)
	assert.Equal(t, 4, metrics.count(), "every lost race is recorded as a version conflict")

	// Linear backoff: base*1, base*2, base*3, base*4.
	expect := []time.Duration{80, 160, 240, 320}
	require.Len(t, sr.durations, 4)
	for i, d := range sr.durations {
		assert.Equal(t, expect[i]*time.Millisecond, d)
	}
}

func TestReserve_StoreFailureAbortsWithoutRetry(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := testRide(t, store, uuid.New(), 2)

	storeErr := errors.New("connection reset")
	stub := &seatRepoStub{Repository: store.Rides(), reserveErr: storeErr}
	sr := &sleepRecorder{}
	svc := NewService(stub, store.Bookings(), &sinkStub{}, nil, nil, nil, logger.NewNop(), Config{MaxRetries: 4})
	svc.sleep = sr.sleep
	svc.now = func() time.Time { return testNow }

	_, err := svc.Reserve(ctx, r.ID, passenger("alice"))
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1, stub.reserveCalls, "infrastructure failures are not retried")
	assert.Equal(t, 0, sr.count())
}

// dupBookingRepo rejects every insert the way a uniqueness constraint would.
type dupBookingRepo struct {
	booking.Repository
}

func (d *dupBookingRepo) Create(context.Context, *booking.Booking) error {
	return booking.ErrDuplicateBooking
}

func TestReserve_DuplicateInsertCompensatesSeat(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := testRide(t, store, uuid.New(), 2)

	svc, _ := newTestService(store, &sinkStub{})
	svc.bookings = &dupBookingRepo{Repository: store.Bookings()}

	res, err := svc.Reserve(ctx, r.ID, passenger("alice"))
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyBooked, res.Status, "a racing duplicate insert is an idempotent success")

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 2, got.SeatsAvailable, "the decrement is compensated, no seat leaks")
	assert.Equal(t, int64(3), got.Version, "decrement and compensating increment both bump the version")
}

func TestReserve_DeadlineDuringBackoff(t *testing.T) {
	store := memory.New()
	r := testRide(t, store, uuid.New(), 2)

	stub := &seatRepoStub{Repository: store.Rides(), neverApply: true}
	svc := NewService(stub, store.Bookings(), &sinkStub{}, nil, nil, nil, logger.NewNop(), Config{MaxRetries: 4})
	svc.now = func() time.Time { return testNow }
	svc.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.DeadlineExceeded
	}

	_, err := svc.Reserve(context.Background(), r.ID, passenger("alice"))
	assert.ErrorIs(t, err, ErrHighContention, "an expired deadline surfaces as transient contention")
	assert.Equal(t, 1, stub.reserveCalls)
}

func TestRelease_RoundTripRestoresSeats(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sink := &sinkStub{}
	svc, _ := newTestService(store, sink)
	r := testRide(t, store, uuid.New(), 3)
	p := passenger("alice")

	_, err := svc.Reserve(ctx, r.ID, p)
	require.NoError(t, err)
	require.NoError(t, svc.Release(ctx, r.ID, p))

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 3, got.SeatsAvailable, "release restores the pre-reserve seat count")
	assert.Equal(t, int64(3), got.Version, "version is monotonic, not round-trippable")

	_, err = store.Bookings().Get(ctx, r.ID, p.UserID)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)

	assert.Equal(t, 2, sink.count(), "owner is notified of booking and cancellation")
}

func TestRelease_CompletedRideRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := completedRide(t, store, uuid.New(), 2)
	p := passenger("alice")

	// Seed a booking directly; the ride completed after it was made.
	require.NoError(t, store.Bookings().Create(ctx, &booking.Booking{
		RideID: r.ID, PassengerID: p.UserID, CreatedAt: testNow,
	}))

	err := svc.Release(ctx, r.ID, p)
	assert.ErrorIs(t, err, ErrRideCompleted)

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 2, got.SeatsAvailable, "seats unchanged on rejected cancellation")
	_, err = store.Bookings().Get(ctx, r.ID, p.UserID)
	assert.NoError(t, err, "booking survives the rejected cancellation")
}

func TestRelease_WithoutBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 2)

	err := svc.Release(ctx, r.ID, passenger("alice"))
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestRelease_ContentionReinstatesBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 2)
	p := passenger("alice")

	_, err := svc.Reserve(ctx, r.ID, p)
	require.NoError(t, err)

	// Every seat increment loses its race.
	stub := &seatRepoStub{Repository: store.Rides(), releaseNeverApply: true}
	svc.rides = stub

	err = svc.Release(ctx, r.ID, p)
	assert.ErrorIs(t, err, ErrHighContention)
	assert.Equal(t, 4, stub.releaseCalls)

	// The cancellation failed as a whole: the passenger is still booked and
	// the seat still taken.
	_, err = store.Bookings().Get(ctx, r.ID, p.UserID)
	assert.NoError(t, err, "booking is reinstated when the seat cannot be returned")
	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 1, got.SeatsAvailable)

	// With the contention gone, retrying completes the cancellation.
	svc.rides = store.Rides()
	require.NoError(t, svc.Release(ctx, r.ID, p))

	_, err = store.Bookings().Get(ctx, r.ID, p.UserID)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	got, _ = store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 2, got.SeatsAvailable, "retry returns the seat")
}

func TestReserveAfterCancellationFillsFreedSeat(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	r := testRide(t, store, uuid.New(), 1)

	first := passenger("alice")
	second := passenger("bria")

	_, err := svc.Reserve(ctx, r.ID, first)
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, r.ID, second)
	assert.ErrorIs(t, err, ride.ErrRideFull)

	require.NoError(t, svc.Release(ctx, r.ID, first))

	res, err := svc.Reserve(ctx, r.ID, second)
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, res.Status)

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.Equal(t, 0, got.SeatsAvailable)
	assert.Equal(t, int64(4), got.Version)
}

func TestConcurrentReserveAndRelease_CapacityInvariant(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, &sinkStub{})
	const seats = 2
	r := testRide(t, store, uuid.New(), seats)

	holder := passenger("holder")
	_, err := svc.Reserve(ctx, r.ID, holder)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = svc.Release(ctx, r.ID, holder)
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.Reserve(ctx, r.ID, passenger("newcomer"))
	}()
	wg.Wait()

	got, _ := store.Rides().GetByID(ctx, r.ID)
	assert.GreaterOrEqual(t, got.SeatsAvailable, 0)
	assert.LessOrEqual(t, got.SeatsAvailable, seats, "seats never exceed capacity")

	bookings, _ := store.Bookings().ListByRide(ctx, r.ID)
	assert.Equal(t, seats-len(bookings), got.SeatsAvailable, "seat count and booking count stay consistent")
}
