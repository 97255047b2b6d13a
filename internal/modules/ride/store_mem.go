// README: In-memory Storage with the same conditional-update semantics as Postgres.
package ride

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

// MemStore keeps rides in a map behind one mutex. UpdateIf checks the
// expected status under the lock, so concurrent accepts behave exactly
// like the SQL `WHERE status = $expected` guard. Used by tests and by
// anything that wants the engine without a database.
type MemStore struct {
	mu     sync.Mutex
	nextID types.ID
	rides  map[types.ID]*Ride
	events []*Event
}

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1, rides: make(map[types.ID]*Ride)}
}

func (s *MemStore) Create(_ context.Context, r *Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	cp := *r
	s.rides[r.ID] = &cp
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) UpdateIf(_ context.Context, id types.ID, expected Status, p Patch) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok || r.Status != expected {
		return nil, ErrConflict
	}
	r.Status = p.Status
	if p.DriverID != nil {
		d := *p.DriverID
		r.DriverID = &d
	} else if p.ClearDriver {
		r.DriverID = nil
	}
	r.UpdatedAt = p.UpdatedAt
	cp := *r
	return &cp, nil
}

func (s *MemStore) ListPending(_ context.Context) ([]*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Ride
	for _, r := range s.rides {
		if r.Status == StatusPending && r.DriverID == nil {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) ActiveByDriver(_ context.Context, driverID types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.DriverID != nil && *r.DriverID == driverID &&
			(r.Status == StatusAccepted || r.Status == StatusInProgress) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) ListByStudent(_ context.Context, studentID types.ID, limit, offset int) ([]*Ride, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*Ride
	for _, r := range s.rides {
		if r.StudentID == studentID {
			cp := *r
			all = append(all, &cp)
		}
	}
	return pageNewestFirst(all, limit, offset)
}

func (s *MemStore) ListAll(_ context.Context, limit, offset int) ([]*Ride, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*Ride, 0, len(s.rides))
	for _, r := range s.rides {
		cp := *r
		all = append(all, &cp)
	}
	return pageNewestFirst(all, limit, offset)
}

func (s *MemStore) CountCancelledSince(_ context.Context, studentID types.ID, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rides {
		if r.StudentID == studentID && r.Status == StatusCancelled && !r.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) CompletedSince(_ context.Context, driverID types.ID, since time.Time) (Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var agg Aggregate
	for _, r := range s.rides {
		if r.DriverID == nil || *r.DriverID != driverID || r.Status != StatusCompleted {
			continue
		}
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		agg.Rides++
		if r.PriceNaira != nil {
			agg.PriceNaira += *r.PriceNaira
		}
		if r.DistanceKm != nil {
			agg.DistanceKm += *r.DistanceKm
		}
	}
	return agg, nil
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	cp.ID = int64(len(s.events) + 1)
	s.events = append(s.events, &cp)
	return nil
}

// Events returns a snapshot of the audit trail.
func (s *MemStore) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

func pageNewestFirst(all []*Ride, limit, offset int) ([]*Ride, int, error) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	if offset >= total {
		return []*Ride{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
