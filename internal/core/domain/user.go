package domain

import (
	"strings"
	"time"
)

// User is a registered account. Developer sessions have no User.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser builds a basic account from sign-up input. It returns
// ErrValidation when a required field is blank after trimming.
func NewUser(username, email, passwordHash string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)
	if username == "" || email == "" || passwordHash == "" {
		return nil, ErrValidation
	}
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleBasic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsPremium reports whether the account holds a premium subscription.
// Staff roles see premium tools without one.
func (u *User) IsPremium() bool {
	return u.Role == RolePremium
}
