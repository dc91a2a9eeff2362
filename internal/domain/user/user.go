// Package user defines actors and roles for access control.
package user

// Role is the access level of an authenticated actor.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// Actor is the authenticated principal performing a request. The auth
// gateway in front of this service resolves the session and forwards the
// actor identity; handlers read it from the request context.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
	// OrgID scopes client actors to their organization. Empty for admins.
	OrgID string `json:"orgId,omitempty"`
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// User is an account belonging to an organization. Account lifecycle
// (passwords, sessions) lives in the auth service; this service only
// tracks membership so organization deletion can be guarded.
type User struct {
	ID       string `json:"id"`
	OrgID    string `json:"orgId"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Disabled bool   `json:"disabled"`
}
