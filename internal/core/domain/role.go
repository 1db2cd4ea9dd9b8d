package domain

import "strings"

// Role governs which tiers of the catalog a caller may see.
type Role string

const (
	RoleBasic     Role = "basic"
	RolePremium   Role = "premium"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

// Access lists the restricted tiers a role may see.
type Access struct {
	Premium bool
	Private bool
}

// tierAccess is the only place visibility rules are written down. Both the
// in-memory evaluation (IsVisible) and the Mongo query builder read it.
var tierAccess = map[Role]Access{
	RoleBasic:     {Premium: false, Private: false},
	RolePremium:   {Premium: true, Private: false},
	RoleAdmin:     {Premium: true, Private: true},
	RoleDeveloper: {Premium: true, Private: true},
}

// ParseRole maps a free-form string to a Role. Unknown values fall back to
// basic so that a malformed claim never widens access.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierAccess[r]; ok {
		return r
	}
	return RoleBasic
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := tierAccess[r]
	return ok
}

// AccessFor returns the tiers visible to role.
func AccessFor(role Role) Access {
	if a, ok := tierAccess[role]; ok {
		return a
	}
	return tierAccess[RoleBasic]
}

// IsVisible is the access filter: it decides whether tool may appear in a
// result set for a caller with the given role.
func IsVisible(tool *Tool, role Role) bool {
	if tool == nil {
		return false
	}
	a := AccessFor(role)
	if tool.IsPremium && !a.Premium {
		return false
	}
	if tool.IsPrivate && !a.Private {
		return false
	}
	return true
}
