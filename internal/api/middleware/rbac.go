package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// RBAC admits sessions whose effective role is one of allowed. Anonymous
// and signed-out callers get ErrUnauthorized so the error handler can send
// them to the login page; signed-in callers with another role get
// ErrForbidden.
func RBAC(allowed ...domain.Role) echo.MiddlewareFunc {
	allowed = slices.Clone(allowed)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := SessionFrom(c)
			if !session.Authenticated() {
				return domain.ErrUnauthorized
			}
			if !slices.Contains(allowed, session.EffectiveRole()) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
