// README: User profiles for the three actor roles.
package account

import (
	"time"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

// User is the common profile record every role-specific table maps to.
// PlateNumber is only present for drivers.
type User struct {
	ID           types.ID   `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         types.Role `json:"role"`
	PlateNumber  *string    `json:"plateNumber,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	PasswordHash string     `json:"-"`
}

func (u *User) Principal() types.Principal {
	return types.Principal{ID: u.ID, Role: u.Role}
}
