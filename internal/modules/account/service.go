// README: Registration, login, and profile management across the role stores.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("user not found")
)

// plateFormat is the campus shuttle plate convention, e.g. ABC-123DE.
var plateFormat = regexp.MustCompile(`^[A-Z]{3}-\d{3}[A-Z]{2}$`)

// loginOrder fixes the lookup sequence when an email could belong to
// any role table.
var loginOrder = []types.Role{types.RoleStudent, types.RoleDriver, types.RoleAdmin}

// TokenIssuer mints a credential for a verified principal.
type TokenIssuer interface {
	Generate(p types.Principal) (string, error)
}

type Service struct {
	profiles Registry
	tokens   TokenIssuer
}

func NewService(profiles Registry, tokens TokenIssuer) *Service {
	return &Service{profiles: profiles, tokens: tokens}
}

type RegisterCommand struct {
	Name        string
	Email       string
	Password    string
	Role        types.Role
	PlateNumber string
}

type LoginCommand struct {
	Email    string
	Password string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*User, error) {
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Email) == "" || cmd.Password == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	if !types.ValidRole(cmd.Role) {
		return nil, fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	if cmd.Role == types.RoleDriver && !plateFormat.MatchString(cmd.PlateNumber) {
		return nil, fmt.Errorf("%w: plate number is required for drivers and must be in the format ABC-123DE", ErrInvalidInput)
	}

	// One email across all role tables.
	for _, role := range loginOrder {
		existing, err := s.profiles[role].ByEmail(ctx, cmd.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         cmd.Name,
		Email:        cmd.Email,
		Role:         cmd.Role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if cmd.Role == types.RoleDriver {
		plate := cmd.PlateNumber
		u.PlateNumber = &plate
	}
	if err := s.profiles[cmd.Role].Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login resolves the email against the role stores in a fixed order and
// returns a signed token on success.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (string, *User, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	var u *User
	for _, role := range loginOrder {
		found, err := s.profiles[role].ByEmail(ctx, cmd.Email)
		if err != nil {
			return "", nil, err
		}
		if found != nil {
			u = found
			break
		}
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(cmd.Password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u.Principal())
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) Me(ctx context.Context, p types.Principal) (*User, error) {
	store, ok := s.profiles[p.Role]
	if !ok {
		return nil, ErrNotFound
	}
	return store.ByID(ctx, p.ID)
}

func (s *Service) UpdateName(ctx context.Context, p types.Principal, name string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	store, ok := s.profiles[p.Role]
	if !ok {
		return nil, ErrNotFound
	}
	return store.UpdateName(ctx, p.ID, name)
}

func (s *Service) ListStudents(ctx context.Context, p types.Principal) ([]*User, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.profiles[types.RoleStudent].List(ctx)
}

func (s *Service) ListDrivers(ctx context.Context, p types.Principal) ([]*User, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.profiles[types.RoleDriver].List(ctx)
}
