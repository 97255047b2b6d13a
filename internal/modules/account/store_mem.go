// README: In-memory profile registry for tests.
package account

import (
	"context"
	"sort"
	"sync"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

// NewMemRegistry builds a registry over in-memory stores, one per role.
func NewMemRegistry() Registry {
	return Registry{
		types.RoleStudent: newMemProfiles(types.RoleStudent),
		types.RoleDriver:  newMemProfiles(types.RoleDriver),
		types.RoleAdmin:   newMemProfiles(types.RoleAdmin),
	}
}

type memProfiles struct {
	role types.Role

	mu     sync.Mutex
	nextID types.ID
	users  map[types.ID]*User
}

func newMemProfiles(role types.Role) *memProfiles {
	return &memProfiles{role: role, nextID: 1, users: make(map[types.ID]*User)}
}

func (s *memProfiles) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	u.Role = s.role
	s.nextID++
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memProfiles) ByID(_ context.Context, id types.ID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memProfiles) ByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memProfiles) UpdateName(_ context.Context, id types.ID, name string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Name = name
	cp := *u
	return &cp, nil
}

func (s *memProfiles) List(_ context.Context) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
