// README: Ride lifecycle engine: guarded transitions, cancellation quota, read paths.
package ride

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Web-dev-ENT-302/transport-backend/internal/clock"
	"github.com/Web-dev-ENT-302/transport-backend/internal/config"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("ride not found")
	ErrConflict        = errors.New("ride state conflict")
	ErrAlreadyTerminal = errors.New("ride already completed or cancelled")
	ErrQuotaExceeded   = errors.New("weekly cancellation limit reached")
	ErrUnavailable     = errors.New("ride store unavailable")
)

// OpenPool tracks which rides are currently open for acceptance.
// Maintained best-effort: the store stays the source of truth.
type OpenPool interface {
	Add(ctx context.Context, id types.ID) error
	Remove(ctx context.Context, id types.ID) error
	IDs(ctx context.Context) ([]types.ID, error)
}

// EventPublisher fans lifecycle events out to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

type Service struct {
	store       Storage
	pool        OpenPool        // optional
	events      EventPublisher  // optional
	log         logrus.FieldLogger
	cancelLimit int
	now         clock.Now
}

func NewService(store Storage, pool OpenPool, events EventPublisher, cfg config.RidesConfig) *Service {
	limit := cfg.WeeklyCancelLimit
	if limit <= 0 {
		limit = 3
	}
	return &Service{
		store:       store,
		pool:        pool,
		events:      events,
		log:         logrus.StandardLogger(),
		cancelLimit: limit,
		now:         time.Now,
	}
}

// SetClock replaces the wall clock; tests pin it to control the
// day/week windows.
func (s *Service) SetClock(now clock.Now) { s.now = now }

type RequestCommand struct {
	Pickup       string
	Destination  string
	DistanceKm   *float64
	DurationMins *int
	PriceNaira   *float64
}

type AcceptCommand struct {
	RideID types.ID
}

type RejectCommand struct {
	RideID types.ID
}

// OverrideCommand drives the permissive status update channel. It is
// kept apart from the guarded transitions so it can be tightened
// without touching them.
type OverrideCommand struct {
	RideID types.ID
	Target Status
}

type CancelCommand struct {
	RideID types.ID
}

// CancelResult carries the cancelled ride plus an advisory warning when
// the student is down to their last cancellation of the week.
type CancelResult struct {
	Ride    *Ride
	Warning string
}

// Request creates a PENDING ride owned by the calling student.
func (s *Service) Request(ctx context.Context, p types.Principal, cmd RequestCommand) (*Ride, error) {
	if !p.IsStudent() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Pickup) == "" || strings.TrimSpace(cmd.Destination) == "" {
		return nil, fmt.Errorf("%w: pickup and destination are required", ErrInvalidInput)
	}

	now := s.now()
	r := &Ride{
		StudentID:    p.ID,
		Pickup:       cmd.Pickup,
		Destination:  cmd.Destination,
		DistanceKm:   cmd.DistanceKm,
		DurationMins: cmd.DurationMins,
		PriceNaira:   cmd.PriceNaira,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, s.classify(err)
	}
	s.afterTransition(ctx, p, StatusNone, r)
	return r, nil
}

// Accept assigns the calling driver to a PENDING ride. Exactly one of
// any number of concurrent accepts wins; the rest observe ErrConflict.
func (s *Service) Accept(ctx context.Context, p types.Principal, cmd AcceptCommand) (*Ride, error) {
	if !p.IsDriver() {
		return nil, ErrForbidden
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, s.classify(err)
	}
	if !CanTransition(r.Status, StatusAccepted) {
		return nil, fmt.Errorf("%w: ride is not available for acceptance", ErrConflict)
	}

	// One non-terminal ride per driver, enforced by query. A concurrent
	// accept slipping between this check and the write is a known,
	// tolerated race; the per-ride guard below is the hard one.
	active, err := s.store.ActiveByDriver(ctx, p.ID)
	if err != nil {
		return nil, s.classify(err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: driver already has an active ride", ErrConflict)
	}

	driver := p.ID
	updated, err := s.store.UpdateIf(ctx, r.ID, StatusPending, Patch{
		Status:    StatusAccepted,
		DriverID:  &driver,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, s.classify(err)
	}
	s.afterTransition(ctx, p, StatusPending, updated)
	return updated, nil
}

// Reject declines a PENDING ride, leaving it PENDING with no driver.
// With the current precondition this is a no-op write; it exists so a
// loosened acceptance flow can return accepted rides to the pool.
func (s *Service) Reject(ctx context.Context, p types.Principal, cmd RejectCommand) (*Ride, error) {
	if !p.IsDriver() {
		return nil, ErrForbidden
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, s.classify(err)
	}
	// Rejection is the PENDING→PENDING edge. The graph also carries
	// ACCEPTED→PENDING, but rejecting an accepted ride stays a conflict
	// until the acceptance flow loosens.
	if !CanTransition(r.Status, StatusPending) || r.Status != StatusPending {
		return nil, fmt.Errorf("%w: ride is not available for rejection", ErrConflict)
	}

	updated, err := s.store.UpdateIf(ctx, r.ID, StatusPending, Patch{
		Status:      StatusPending,
		ClearDriver: true,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return nil, s.classify(err)
	}
	s.afterTransition(ctx, p, StatusPending, updated)
	return updated, nil
}

// Override sets one of the three externally settable statuses without
// an adjacency check. Only the assigned driver or an admin may call it,
// and terminal rides stay terminal.
func (s *Service) Override(ctx context.Context, p types.Principal, cmd OverrideCommand) (*Ride, error) {
	if !IsOverrideTarget(cmd.Target) {
		return nil, fmt.Errorf("%w: status must be one of IN_PROGRESS, COMPLETED, CANCELLED", ErrInvalidInput)
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, s.classify(err)
	}
	assigned := r.DriverID != nil && *r.DriverID == p.ID
	if !assigned && !p.IsAdmin() {
		return nil, fmt.Errorf("%w: you are not allowed to update this ride", ErrForbidden)
	}
	if IsTerminal(r.Status) {
		return nil, ErrAlreadyTerminal
	}

	updated, err := s.store.UpdateIf(ctx, r.ID, r.Status, Patch{
		Status:    cmd.Target,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, s.classify(err)
	}
	s.afterTransition(ctx, p, r.Status, updated)
	return updated, nil
}

// Cancel lets the owning student cancel a non-terminal ride, bounded by
// the weekly quota.
func (s *Service) Cancel(ctx context.Context, p types.Principal, cmd CancelCommand) (*CancelResult, error) {
	if !p.IsStudent() {
		return nil, ErrForbidden
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, s.classify(err)
	}
	if r.StudentID != p.ID {
		return nil, fmt.Errorf("%w: you can only cancel your own rides", ErrForbidden)
	}
	if IsTerminal(r.Status) {
		return nil, ErrAlreadyTerminal
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: a ride in progress cannot be cancelled", ErrConflict)
	}

	weekStart := clock.StartOfWeek(s.now())
	cancelled, err := s.store.CountCancelledSince(ctx, p.ID, weekStart)
	if err != nil {
		return nil, s.classify(err)
	}
	if cancelled >= s.cancelLimit {
		return nil, ErrQuotaExceeded
	}

	updated, err := s.store.UpdateIf(ctx, r.ID, r.Status, Patch{
		Status:    StatusCancelled,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, s.classify(err)
	}
	s.afterTransition(ctx, p, r.Status, updated)

	res := &CancelResult{Ride: updated}
	// Warn on the cancellation that leaves exactly one remaining.
	if cancelled == s.cancelLimit-2 {
		res.Warning = "one cancellation remaining this week"
	}
	return res, nil
}

// Get returns a ride by id. Any authenticated principal may read rides.
func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	return r, nil
}

// ListAvailable returns the open rides for drivers, oldest first. The
// Redis pool is consulted first as a cheap precheck; the store query is
// the fallback whenever the pool is unusable.
func (s *Service) ListAvailable(ctx context.Context, p types.Principal) ([]*Ride, error) {
	if !p.IsDriver() {
		return nil, ErrForbidden
	}
	if rides, ok := s.fromPool(ctx); ok {
		return rides, nil
	}
	rides, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, s.classify(err)
	}
	return rides, nil
}

// fromPool resolves the pooled ride ids against the store, dropping
// entries that are no longer open. Returns false when the pool is
// unwired, errors, or yields nothing usable.
func (s *Service) fromPool(ctx context.Context) ([]*Ride, bool) {
	if s.pool == nil {
		return nil, false
	}
	ids, err := s.pool.IDs(ctx)
	if err != nil {
		s.log.WithError(err).Warn("read open-ride pool")
		return nil, false
	}
	var out []*Ride
	for _, id := range ids {
		r, err := s.store.Get(ctx, id)
		if err != nil {
			// Stale entry; the pool is best-effort.
			continue
		}
		if r.Status == StatusPending && r.DriverID == nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, true
}

// Current returns the calling driver's active ride, or nil when idle.
func (s *Service) Current(ctx context.Context, p types.Principal) (*Ride, error) {
	if !p.IsDriver() {
		return nil, ErrForbidden
	}
	r, err := s.store.ActiveByDriver(ctx, p.ID)
	if err != nil {
		return nil, s.classify(err)
	}
	return r, nil
}

// History returns the calling student's rides, newest first.
func (s *Service) History(ctx context.Context, p types.Principal, limit, offset int) ([]*Ride, int, error) {
	if !p.IsStudent() {
		return nil, 0, ErrForbidden
	}
	rides, total, err := s.store.ListByStudent(ctx, p.ID, limit, offset)
	if err != nil {
		return nil, 0, s.classify(err)
	}
	return rides, total, nil
}

// AllRides is the admin view over every ride, newest first.
func (s *Service) AllRides(ctx context.Context, p types.Principal, limit, offset int) ([]*Ride, int, error) {
	if !p.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	rides, total, err := s.store.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, s.classify(err)
	}
	return rides, total, nil
}

// afterTransition records the audit event, keeps the open pool in step,
// and publishes the change. All best-effort: a failed side effect never
// fails the transition that already committed.
func (s *Service) afterTransition(ctx context.Context, p types.Principal, from Status, r *Ride) {
	e := Event{
		RideID:    r.ID,
		From:      from,
		To:        r.Status,
		ActorID:   p.ID,
		ActorRole: p.Role,
		CreatedAt: r.UpdatedAt,
	}
	if err := s.store.AppendEvent(ctx, &e); err != nil {
		s.log.WithError(err).WithField("rideId", r.ID).Warn("append ride event")
	}
	if s.pool != nil {
		var err error
		if r.Status == StatusPending {
			err = s.pool.Add(ctx, r.ID)
		} else {
			err = s.pool.Remove(ctx, r.ID)
		}
		if err != nil {
			s.log.WithError(err).WithField("rideId", r.ID).Warn("update open-ride pool")
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, e); err != nil {
			s.log.WithError(err).WithField("rideId", r.ID).Warn("publish ride event")
		}
	}
}

// classify maps raw store failures onto the error taxonomy. Typed
// failures pass through; anything else is a retryable Unavailable.
func (s *Service) classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	default:
		s.log.WithError(err).Error("ride store failure")
		return ErrUnavailable
	}
}
