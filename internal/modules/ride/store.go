// README: Ride store contract and its PostgreSQL implementation.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

// Patch is the writable part of a conditional status update.
type Patch struct {
	Status      Status
	DriverID    *types.ID // non-nil: assign this driver
	ClearDriver bool      // set driver_id back to NULL
	UpdatedAt   time.Time
}

// Aggregate summarizes completed rides for one driver.
type Aggregate struct {
	Rides      int
	PriceNaira float64
	DistanceKm float64
}

// Storage is what the lifecycle engine needs from the ride store.
// UpdateIf must be atomic: the row is written only when its status
// still equals expected, otherwise ErrConflict comes back and nothing
// changes. That single guarantee closes the double-accept race.
type Storage interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	UpdateIf(ctx context.Context, id types.ID, expected Status, p Patch) (*Ride, error)
	ListPending(ctx context.Context) ([]*Ride, error)
	ActiveByDriver(ctx context.Context, driverID types.ID) (*Ride, error)
	ListByStudent(ctx context.Context, studentID types.ID, limit, offset int) ([]*Ride, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Ride, int, error)
	CountCancelledSince(ctx context.Context, studentID types.ID, since time.Time) (int, error)
	CompletedSince(ctx context.Context, driverID types.ID, since time.Time) (Aggregate, error)
	AppendEvent(ctx context.Context, e *Event) error
}

const rideColumns = `id, student_id, driver_id, pickup, destination,
       distance_km, duration_mins, price_naira, status, created_at, updated_at`

// Store is the pgx-backed Storage used in production.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Ride) error {
	row := s.db.QueryRow(ctx, `
        INSERT INTO rides (
            student_id, pickup, destination,
            distance_km, duration_mins, price_naira,
            status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`,
		int64(r.StudentID),
		r.Pickup,
		r.Destination,
		r.DistanceKm,
		r.DurationMins,
		r.PriceNaira,
		string(r.Status),
		r.CreatedAt,
		r.UpdatedAt,
	)
	return row.Scan(&r.ID)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE id = $1`, int64(id),
	)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *Store) UpdateIf(ctx context.Context, id types.ID, expected Status, p Patch) (*Ride, error) {
	var driver *int64
	if p.DriverID != nil {
		v := int64(*p.DriverID)
		driver = &v
	}
	row := s.db.QueryRow(ctx, `
        UPDATE rides
        SET status = $1,
            driver_id = CASE
                WHEN $2::bigint IS NOT NULL THEN $2
                WHEN $3 THEN NULL
                ELSE driver_id
            END,
            updated_at = $4
        WHERE id = $5 AND status = $6
        RETURNING `+rideColumns,
		string(p.Status),
		driver,
		p.ClearDriver,
		p.UpdatedAt,
		int64(id),
		string(expected),
	)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Zero rows: the status moved underneath us.
		return nil, ErrConflict
	}
	return r, err
}

func (s *Store) ListPending(ctx context.Context) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE status = $1 AND driver_id IS NULL
        ORDER BY created_at ASC`, string(StatusPending),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

func (s *Store) ActiveByDriver(ctx context.Context, driverID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE driver_id = $1 AND status IN ($2, $3)
        LIMIT 1`,
		int64(driverID), string(StatusAccepted), string(StatusInProgress),
	)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *Store) ListByStudent(ctx context.Context, studentID types.ID, limit, offset int) ([]*Ride, int, error) {
	var total int
	err := s.db.QueryRow(ctx, `
        SELECT COUNT(*) FROM rides WHERE student_id = $1`, int64(studentID),
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE student_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`,
		int64(studentID), limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	rides, err := scanRides(rows)
	return rides, total, err
}

func (s *Store) ListAll(ctx context.Context, limit, offset int) ([]*Ride, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM rides`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	rides, err := scanRides(rows)
	return rides, total, err
}

func (s *Store) CountCancelledSince(ctx context.Context, studentID types.ID, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM rides
        WHERE student_id = $1 AND status = $2 AND updated_at >= $3`,
		int64(studentID), string(StatusCancelled), since,
	).Scan(&n)
	return n, err
}

// CompletedSince aggregates completed rides created at or after since.
// A zero since means all-time.
func (s *Store) CompletedSince(ctx context.Context, driverID types.ID, since time.Time) (Aggregate, error) {
	var cutoff *time.Time
	if !since.IsZero() {
		cutoff = &since
	}
	var agg Aggregate
	err := s.db.QueryRow(ctx, `
        SELECT COUNT(*),
               COALESCE(SUM(price_naira), 0),
               COALESCE(SUM(distance_km), 0)
        FROM rides
        WHERE driver_id = $1
          AND status = $2
          AND ($3::timestamptz IS NULL OR created_at >= $3)`,
		int64(driverID), string(StatusCompleted), cutoff,
	).Scan(&agg.Rides, &agg.PriceNaira, &agg.DistanceKm)
	return agg, err
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO ride_events (
            ride_id, from_status, to_status, actor_id, actor_role, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		int64(e.RideID),
		string(e.From),
		string(e.To),
		int64(e.ActorID),
		string(e.ActorRole),
		e.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	var driverID sql.NullInt64
	var distance sql.NullFloat64
	var duration sql.NullInt64
	var price sql.NullFloat64

	err := row.Scan(
		&r.ID, &r.StudentID, &driverID, &r.Pickup, &r.Destination,
		&distance, &duration, &price, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		d := types.ID(driverID.Int64)
		r.DriverID = &d
	}
	if distance.Valid {
		v := distance.Float64
		r.DistanceKm = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		r.DurationMins = &v
	}
	if price.Valid {
		v := price.Float64
		r.PriceNaira = &v
	}
	return &r, nil
}

type rowsScanner interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}

func scanRides(rows rowsScanner) ([]*Ride, error) {
	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
