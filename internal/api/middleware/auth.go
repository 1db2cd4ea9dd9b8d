package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// SessionKey is the echo context key holding the caller's domain.Session.
const SessionKey = "session"

var errInvalidToken = errors.New("invalid token")

// Auth validates the JWT, resolves the caller's session and injects it into
// the context. Requests without a signed-in session are rejected with 401.
func Auth(jwtSecret string, resolver ports.SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			session, err := resolve(c, authHeader, jwtSecret, resolver)
			if err != nil {
				return err
			}
			if !session.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "session ended")
			}

			c.Set(SessionKey, session)
			return next(c)
		}
	}
}

// OptionalAuth behaves like Auth when a token is present and falls back to
// the anonymous session otherwise. A malformed token is still rejected.
func OptionalAuth(jwtSecret string, resolver ports.SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				c.Set(SessionKey, domain.Anonymous())
				return next(c)
			}

			session, err := resolve(c, authHeader, jwtSecret, resolver)
			if errors.Is(err, domain.ErrUnauthorized) {
				session, err = domain.Anonymous(), nil
			}
			if err != nil {
				return err
			}

			c.Set(SessionKey, session)
			return next(c)
		}
	}
}

// SessionFrom returns the session injected by Auth or OptionalAuth, or the
// anonymous session when neither ran.
func SessionFrom(c echo.Context) domain.Session {
	if s, ok := c.Get(SessionKey).(domain.Session); ok {
		return s
	}
	return domain.Anonymous()
}

func resolve(c echo.Context, authHeader, jwtSecret string, resolver ports.SessionResolver) (domain.Session, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	id, err := ParseIdentity(parts[1], jwtSecret)
	if err != nil {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	return resolver.Resolve(c.Request().Context(), id)
}

// ParseIdentity verifies an HS256 token and extracts the identity it
// asserts.
func ParseIdentity(token, jwtSecret string) (domain.Identity, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return domain.Identity{}, errInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return domain.Identity{}, errInvalidToken
	}

	id := domain.Identity{
		UserID:   sub,
		Username: stringClaim(claims, "username"),
		Email:    stringClaim(claims, "email"),
		Role:     domain.ParseRole(stringClaim(claims, "role")),
		TokenID:  stringClaim(claims, "jti"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time.UTC()
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}
