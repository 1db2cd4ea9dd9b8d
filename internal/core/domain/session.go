package domain

import "time"

// Preference store keys. The session keys are written only by sign-in and
// sign-out; favorites only by the favorites toggle.
const (
	KeyIsLoggedIn     = "isLoggedIn"
	KeyIsDeveloper    = "isDeveloper"
	KeyIsPremium      = "isPremium"
	KeyUsername       = "username"
	KeyEmail          = "email"
	KeyPassword       = "password"
	KeyFavorites      = "favorites"
	KeySavedPasswords = "savedPasswords"
)

// SessionKeys are cleared together on sign-out.
var SessionKeys = []string{KeyIsLoggedIn, KeyIsDeveloper, KeyIsPremium, KeyUsername, KeyEmail}

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	UserID    string
	Username  string
	Email     string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

// Session is the derived, per-request view of the caller. It is built in
// one place (the session provider) and handed to services explicitly.
type Session struct {
	UserID      string    `json:"user_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        Role      `json:"role"`
	TokenID     string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	IsLoggedIn  bool      `json:"is_logged_in"`
	IsPremium   bool      `json:"is_premium"`
	IsAdmin     bool      `json:"is_admin"`
	IsDeveloper bool      `json:"is_developer"`
}

// Anonymous is the session of a caller without a token.
func Anonymous() Session {
	return Session{Role: RoleBasic}
}

// EffectiveRole is the role the access filter should evaluate for this
// session. Derived flags can only raise the account role, never lower it.
func (s Session) EffectiveRole() Role {
	switch {
	case !s.IsLoggedIn:
		return RoleBasic
	case s.IsDeveloper:
		return RoleDeveloper
	case s.IsAdmin:
		return RoleAdmin
	case s.IsPremium:
		return RolePremium
	default:
		return ParseRole(string(s.Role))
	}
}

// Authenticated reports whether the session may perform user actions.
func (s Session) Authenticated() bool {
	return s.IsLoggedIn && s.UserID != ""
}
