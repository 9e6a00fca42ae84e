package model

import "strings"

// Role is the closed set of permission levels. Roles form a total order:
// a higher rank implicitly holds every lower rank's permissions, so
// authorization is a rank comparison, never a set-membership check.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleAnalyst Role = "analyst"
	RoleAdmin   Role = "admin"
)

// roleRanks maps each known role to its position in the hierarchy.
var roleRanks = map[Role]int{
	RoleGuest:   1,
	RoleAnalyst: 2,
	RoleAdmin:   3,
}

// Rank returns the numeric position of a role in the hierarchy, or 0 for
// an unknown role so that unknown always fails an AtLeast check.
func (r Role) Rank() int { return roleRanks[r] }

// Valid reports whether the role belongs to the known set.
func (r Role) Valid() bool { return roleRanks[r] != 0 }

// AtLeast reports whether r holds the permissions of required.
// This is the single authorization predicate shared by the server-side
// middleware and the session client's UI gating; only the server-side
// check is a security boundary.
func (r Role) AtLeast(required Role) bool {
	return r.Rank() >= required.Rank() && required.Valid()
}

// ParseRole normalizes a role string. Unknown or empty input falls back
// to guest, the default signup role.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return RoleGuest
	}
	return r
}
