package model

import "time"

// Role classifies what a user account is allowed to do. The original
// system modelled roles as a class hierarchy; here a role is plain data
// and capabilities are resolved through PermissionsFor.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleStudent   Role = "student"
	RoleVisitor   Role = "visitor"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleStudent, RoleVisitor:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Permission names a single allowed action.
type Permission string

const (
	PermCreateEvents     Permission = "create_events"
	PermManageAllEvents  Permission = "manage_all_events"
	PermManageOwnEvents  Permission = "manage_own_events"
	PermViewAllAttendees Permission = "view_all_attendees"
	PermManageUsers      Permission = "manage_users"
	PermViewReports      Permission = "view_reports"
)

// rolePermissions is the capability lookup table, built once at startup.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleAdmin: {
		PermCreateEvents:     {},
		PermManageAllEvents:  {},
		PermViewAllAttendees: {},
		PermManageUsers:      {},
		PermViewReports:      {},
	},
	RoleOrganizer: {
		PermCreateEvents:    {},
		PermManageOwnEvents: {},
	},
	RoleStudent: {},
	RoleVisitor: {},
}

// PermissionsFor returns the capability set for a role. Unknown roles
// have no capabilities.
func PermissionsFor(r Role) map[Permission]struct{} {
	return rolePermissions[r]
}

// Can reports whether the role holds the given permission.
func (r Role) Can(p Permission) bool {
	_, ok := rolePermissions[r][p]
	return ok
}

// User represents an account in the system. RegisteredEvents holds event
// IDs and is kept symmetric with the events' attendee sets; it is mutated
// only through the registration ledger.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	Department       string    `json:"department,omitempty"`
	StudentID        string    `json:"student_id,omitempty"`
	Organization     string    `json:"organization,omitempty"`
	RegisteredEvents []string  `json:"registered_events"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasRegistered reports whether the user is registered for the event.
func (u *User) HasRegistered(eventID string) bool {
	for _, id := range u.RegisteredEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can never alias store state.
func (u *User) Clone() *User {
	c := *u
	c.RegisteredEvents = append([]string(nil), u.RegisteredEvents...)
	return &c
}

// Identity is the authenticated caller of a request, resolved once by the
// auth middleware and passed explicitly through the request context.
type Identity struct {
	UserID string
	Role   Role
}

// CreateUserRequest is the payload for creating a user account.
type CreateUserRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         Role   `json:"role"`
	Department   string `json:"department,omitempty"`
	StudentID    string `json:"student_id,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// UpdateUserRequest is the payload for partially updating a user.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Email        *string `json:"email,omitempty"`
	Password     *string `json:"password,omitempty"`
	Department   *string `json:"department,omitempty"`
	StudentID    *string `json:"student_id,omitempty"`
	Organization *string `json:"organization,omitempty"`
}

// LoginRequest is the payload for authenticating a user.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token and the authenticated user.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
