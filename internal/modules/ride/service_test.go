// README: Lifecycle engine tests over the in-memory store.
package ride

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Web-dev-ENT-302/transport-backend/internal/config"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

var (
	student      = types.Principal{ID: 1, Role: types.RoleStudent}
	otherStudent = types.Principal{ID: 2, Role: types.RoleStudent}
	driver       = types.Principal{ID: 10, Role: types.RoleDriver}
	otherDriver  = types.Principal{ID: 11, Role: types.RoleDriver}
	admin        = types.Principal{ID: 99, Role: types.RoleAdmin}
)

// Wednesday mid-week, so day and week windows are easy to reason about.
var testNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MemStore) {
	t.Helper()
	store := NewMemStore()
	svc := NewService(store, nil, nil, config.RidesConfig{WeeklyCancelLimit: 3})
	svc.SetClock(func() time.Time { return testNow })
	return svc, store
}

func requestRide(t *testing.T, svc *Service, p types.Principal) *Ride {
	t.Helper()
	r, err := svc.Request(context.Background(), p, RequestCommand{
		Pickup:      "Main Gate",
		Destination: "Faculty of Engineering",
	})
	require.NoError(t, err)
	return r
}

func TestRequest(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	r := requestRide(t, svc, student)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, student.ID, r.StudentID)
	assert.Nil(t, r.DriverID)
	assert.Equal(t, testNow, r.CreatedAt)

	// creation is audited with an empty origin status
	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, StatusNone, events[0].From)
	assert.Equal(t, StatusPending, events[0].To)

	_, err := svc.Request(ctx, driver, RequestCommand{Pickup: "A", Destination: "B"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Request(ctx, student, RequestCommand{Pickup: "  ", Destination: "B"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAccept(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := requestRide(t, svc, student)

	_, err := svc.Accept(ctx, student, AcceptCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Accept(ctx, driver, AcceptCommand{RideID: 999})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Accept(ctx, driver, AcceptCommand{RideID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, driver.ID, *got.DriverID)

	// second driver loses
	_, err = svc.Accept(ctx, otherDriver, AcceptCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrConflict)

	// the winner cannot pick up a second ride while this one is active
	r2 := requestRide(t, svc, student)
	_, err = svc.Accept(ctx, driver, AcceptCommand{RideID: r2.ID})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestReject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := requestRide(t, svc, student)

	got, err := svc.Reject(ctx, driver, RejectCommand{RideID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.DriverID)

	// the ride is still up for grabs
	got, err = svc.Accept(ctx, otherDriver, AcceptCommand{RideID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)

	// accepted rides cannot be rejected
	_, err = svc.Reject(ctx, driver, RejectCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOverride(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r := requestRide(t, svc, student)
	_, err := svc.Accept(ctx, driver, AcceptCommand{RideID: r.ID})
	require.NoError(t, err)

	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: Status("ACCEPTED")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: 999, Target: StatusCompleted})
	assert.ErrorIs(t, err, ErrNotFound)

	// neither the student nor an unassigned driver may touch it
	_, err = svc.Override(ctx, student, OverrideCommand{RideID: r.ID, Target: StatusInProgress})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Override(ctx, otherDriver, OverrideCommand{RideID: r.ID, Target: StatusInProgress})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	got, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	// terminal rides stay terminal, even for admins
	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusInProgress})
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	_, err = svc.Override(ctx, admin, OverrideCommand{RideID: r.ID, Target: StatusCancelled})
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestOverrideByAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// admins may act on rides they are not assigned to
	r := requestRide(t, svc, student)
	got, err := svc.Override(ctx, admin, OverrideCommand{RideID: r.ID, Target: StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestCancel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r := requestRide(t, svc, student)

	_, err := svc.Cancel(ctx, driver, CancelCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Cancel(ctx, otherStudent, CancelCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	res, err := svc.Cancel(ctx, student, CancelCommand{RideID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Ride.Status)
	assert.Empty(t, res.Warning)

	// cancelling again is not idempotent
	_, err = svc.Cancel(ctx, student, CancelCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCancelAcceptedRide(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r := requestRide(t, svc, student)
	_, err := svc.Accept(ctx, driver, AcceptCommand{RideID: r.ID})
	require.NoError(t, err)

	res, err := svc.Cancel(ctx, student, CancelCommand{RideID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Ride.Status)
}

func TestCancelInProgressRide(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r := requestRide(t, svc, student)
	_, err := svc.Accept(ctx, driver, AcceptCommand{RideID: r.ID})
	require.NoError(t, err)
	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusInProgress})
	require.NoError(t, err)

	// in-progress rides are outside the cancellation edges
	_, err = svc.Cancel(ctx, student, CancelCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cancel := func() (*CancelResult, error) {
		r := requestRide(t, svc, student)
		return svc.Cancel(ctx, student, CancelCommand{RideID: r.ID})
	}

	res, err := cancel()
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	// the second cancel leaves exactly one remaining
	res, err = cancel()
	require.NoError(t, err)
	assert.Equal(t, "one cancellation remaining this week", res.Warning)

	res, err = cancel()
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	// fourth attempt is refused and the ride stays untouched
	r := requestRide(t, svc, student)
	_, err = svc.Cancel(ctx, student, CancelCommand{RideID: r.ID})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	// the quota resets on Sunday
	svc.SetClock(func() time.Time { return testNow.AddDate(0, 0, 7) })
	res, err = svc.Cancel(ctx, student, CancelCommand{RideID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Ride.Status)
	assert.Empty(t, res.Warning)
}

func TestHistoryPagination(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		ts := testNow.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Create(ctx, &Ride{
			StudentID:   student.ID,
			Pickup:      fmt.Sprintf("stop %d", i),
			Destination: "campus",
			Status:      StatusPending,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}))
	}
	// another student's rides never leak in
	requestRide(t, svc, otherStudent)

	rides, total, err := svc.History(ctx, student, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, rides, 10)
	assert.Equal(t, "stop 24", rides[0].Pickup)

	rides, total, err = svc.History(ctx, student, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, rides, 5)

	rides, total, err = svc.History(ctx, student, 10, 30)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Empty(t, rides)
}

func TestListAvailable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := requestRide(t, svc, student)
	second := requestRide(t, svc, otherStudent)
	_, err := svc.Accept(ctx, driver, AcceptCommand{RideID: second.ID})
	require.NoError(t, err)

	_, err = svc.ListAvailable(ctx, student)
	assert.ErrorIs(t, err, ErrForbidden)

	rides, err := svc.ListAvailable(ctx, otherDriver)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, first.ID, rides[0].ID)
}

// fakePool is an in-process OpenPool mirroring the Redis set.
type fakePool struct {
	mu  sync.Mutex
	ids map[types.ID]bool
	err error
}

func newFakePool() *fakePool {
	return &fakePool{ids: make(map[types.ID]bool)}
}

func (p *fakePool) Add(_ context.Context, id types.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids[id] = true
	return nil
}

func (p *fakePool) Remove(_ context.Context, id types.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ids, id)
	return nil
}

func (p *fakePool) IDs(_ context.Context) ([]types.ID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	out := make([]types.ID, 0, len(p.ids))
	for id := range p.ids {
		out = append(out, id)
	}
	return out, nil
}

func TestListAvailablePoolPrecheck(t *testing.T) {
	store := NewMemStore()
	openPool := newFakePool()
	svc := NewService(store, openPool, nil, config.RidesConfig{WeeklyCancelLimit: 3})
	svc.SetClock(func() time.Time { return testNow })
	ctx := context.Background()

	first := requestRide(t, svc, student)
	second := requestRide(t, svc, otherStudent)

	// transitions keep the pool in step
	rides, err := svc.ListAvailable(ctx, driver)
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, first.ID, rides[0].ID)

	_, err = svc.Accept(ctx, driver, AcceptCommand{RideID: first.ID})
	require.NoError(t, err)

	rides, err = svc.ListAvailable(ctx, otherDriver)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, second.ID, rides[0].ID)

	// stale pool entries are dropped, not served
	require.NoError(t, openPool.Add(ctx, first.ID))
	rides, err = svc.ListAvailable(ctx, otherDriver)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, second.ID, rides[0].ID)
}

func TestListAvailablePoolFallback(t *testing.T) {
	store := NewMemStore()
	openPool := newFakePool()
	svc := NewService(store, openPool, nil, config.RidesConfig{WeeklyCancelLimit: 3})
	svc.SetClock(func() time.Time { return testNow })
	ctx := context.Background()

	r := requestRide(t, svc, student)

	// pool failure falls back to the store query
	openPool.err = errors.New("redis down")
	rides, err := svc.ListAvailable(ctx, driver)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, r.ID, rides[0].ID)

	// a ride created behind the pool's back is still served
	openPool.err = nil
	openPool.ids = map[types.ID]bool{}
	rides, err = svc.ListAvailable(ctx, driver)
	require.NoError(t, err)
	require.Len(t, rides, 1)
}

func TestCurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.Current(ctx, driver)
	require.NoError(t, err)
	assert.Nil(t, got)

	r := requestRide(t, svc, student)
	_, err = svc.Accept(ctx, driver, AcceptCommand{RideID: r.ID})
	require.NoError(t, err)

	got, err = svc.Current(ctx, driver)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.ID, got.ID)

	// completing the ride frees the driver up
	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusInProgress})
	require.NoError(t, err)
	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusCompleted})
	require.NoError(t, err)

	got, err = svc.Current(ctx, driver)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAuditTrail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	r := requestRide(t, svc, student)
	_, err := svc.Accept(ctx, driver, AcceptCommand{RideID: r.ID})
	require.NoError(t, err)
	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusInProgress})
	require.NoError(t, err)
	_, err = svc.Override(ctx, driver, OverrideCommand{RideID: r.ID, Target: StatusCompleted})
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 4)
	assert.Equal(t, StatusPending, events[1].From)
	assert.Equal(t, StatusAccepted, events[1].To)
	assert.Equal(t, driver.ID, events[1].ActorID)
	assert.Equal(t, StatusInProgress, events[3].From)
	assert.Equal(t, StatusCompleted, events[3].To)
}
