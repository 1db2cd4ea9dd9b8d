package service

import (
	"crypto/subtle"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

const (
	developerUserID   = "developer"
	developerUsername = "開発者"
	developerRedirect = "/admin/dashboard"
	defaultRedirect   = "/"
)

// DeveloperLogin is the configured local-development credential pair. A
// match signs in with the developer role without consulting the user
// repository.
type DeveloperLogin struct {
	email    string
	password string
}

func NewDeveloperLogin(email, password string) *DeveloperLogin {
	return &DeveloperLogin{email: email, password: password}
}

// Matches compares both fields in constant time.
func (d *DeveloperLogin) Matches(email, password string) bool {
	if d == nil || d.email == "" || d.password == "" {
		return false
	}
	e := subtle.ConstantTimeCompare([]byte(email), []byte(d.email))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(d.password))
	return e&p == 1
}

func (d *DeveloperLogin) user() *domain.User {
	return &domain.User{
		ID:       developerUserID,
		Username: developerUsername,
		Email:    d.email,
		Role:     domain.RoleDeveloper,
	}
}
