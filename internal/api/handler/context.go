package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/api/middleware"
	"github.com/yokaunit/toolbox/internal/core/domain"
)

// ctxSession returns the caller's session as injected by the auth
// middleware.
func ctxSession(c echo.Context) domain.Session {
	return middleware.SessionFrom(c)
}

// requireSession fails fast with ErrUnauthorized before any service call
// when the caller is not signed in.
func requireSession(c echo.Context) (domain.Session, error) {
	s := ctxSession(c)
	if !s.Authenticated() {
		return s, domain.ErrUnauthorized
	}
	return s, nil
}
