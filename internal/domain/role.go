package domain

const (
	RoleStudent     = "student"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

// Roles lists every assignable role, lowest privilege first.
var Roles = []string{RoleStudent, RoleCoordinator, RoleAdmin}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   string
}

// Owns reports whether the actor may manage a resource owned by ownerID.
// Admins may manage everything.
func (a Actor) Owns(ownerID string) bool {
	return a.Role == RoleAdmin || a.UserID == ownerID
}
