// README: Shared identifiers, roles, and the authenticated principal.
package types

// ID is a numeric record identifier (serial ids in the database).
type ID int64

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleDriver  Role = "DRIVER"
	RoleAdmin   Role = "ADMIN"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// Principal is the verified actor behind a request. The identity layer
// produces it; everything below trusts it.
type Principal struct {
	ID   ID
	Role Role
}

func (p Principal) IsStudent() bool { return p.Role == RoleStudent }
func (p Principal) IsDriver() bool  { return p.Role == RoleDriver }
func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
