// README: Role-keyed profile stores over per-role Postgres tables.
package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

// ProfileStore is the common handle each role's storage shape satisfies.
type ProfileStore interface {
	Create(ctx context.Context, u *User) error
	ByID(ctx context.Context, id types.ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error) // nil, nil when absent
	UpdateName(ctx context.Context, id types.ID, name string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

// Registry maps a role to its profile store. Lookup by role replaces
// per-call type switching.
type Registry map[types.Role]ProfileStore

// NewRegistry wires the three role-specific tables. Students, drivers,
// and admins live in separate tables (drivers carry a plate number);
// the registry presents them through one interface.
func NewRegistry(db *pgxpool.Pool) Registry {
	return Registry{
		types.RoleStudent: &pgProfiles{db: db, table: "students", role: types.RoleStudent},
		types.RoleDriver:  &pgProfiles{db: db, table: "drivers", role: types.RoleDriver, hasPlate: true},
		types.RoleAdmin:   &pgProfiles{db: db, table: "admins", role: types.RoleAdmin},
	}
}

type pgProfiles struct {
	db       *pgxpool.Pool
	table    string
	role     types.Role
	hasPlate bool
}

func (s *pgProfiles) Create(ctx context.Context, u *User) error {
	if s.hasPlate {
		return s.db.QueryRow(ctx, `
            INSERT INTO `+s.table+` (name, email, password_hash, plate_number, created_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id`,
			u.Name, u.Email, u.PasswordHash, u.PlateNumber, u.CreatedAt,
		).Scan(&u.ID)
	}
	return s.db.QueryRow(ctx, `
        INSERT INTO `+s.table+` (name, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id`,
		u.Name, u.Email, u.PasswordHash, u.CreatedAt,
	).Scan(&u.ID)
}

func (s *pgProfiles) ByID(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, s.selectClause()+` WHERE id = $1`, int64(id))
	u, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *pgProfiles) ByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx, s.selectClause()+` WHERE email = $1`, email)
	u, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (s *pgProfiles) UpdateName(ctx context.Context, id types.ID, name string) (*User, error) {
	_, err := s.db.Exec(ctx, `UPDATE `+s.table+` SET name = $1 WHERE id = $2`, name, int64(id))
	if err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

func (s *pgProfiles) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.Query(ctx, s.selectClause()+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *pgProfiles) selectClause() string {
	if s.hasPlate {
		return `SELECT id, name, email, password_hash, plate_number, created_at FROM ` + s.table
	}
	return `SELECT id, name, email, password_hash, created_at FROM ` + s.table
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *pgProfiles) scan(row rowScanner) (*User, error) {
	u := User{Role: s.role}
	if s.hasPlate {
		var plate sql.NullString
		if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &plate, &u.CreatedAt); err != nil {
			return nil, err
		}
		if plate.Valid {
			u.PlateNumber = &plate.String
		}
		return &u, nil
	}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
