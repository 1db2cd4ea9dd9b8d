package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

const testSecret = "secret"

type stubResolver struct {
	err  error
	seen []domain.Identity
}

func (r *stubResolver) Resolve(_ context.Context, id domain.Identity) (domain.Session, error) {
	r.seen = append(r.seen, id)
	if r.err != nil {
		return domain.Anonymous(), r.err
	}
	return domain.Session{
		UserID:     id.UserID,
		Username:   id.Username,
		Role:       id.Role,
		TokenID:    id.TokenID,
		IsLoggedIn: true,
		IsAdmin:    id.Role == domain.RoleAdmin,
	}, nil
}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      "u1",
		"username": "alice",
		"email":    "alice@example.com",
		"role":     "admin",
		"jti":      "token-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
}

func newContext(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	c, rec := newContext("Bearer " + signToken(t, validClaims(), testSecret))
	resolver := &stubResolver{}

	called := false
	handler := Auth(testSecret, resolver)(func(c echo.Context) error {
		called = true
		s := SessionFrom(c)
		if s.UserID != "u1" || s.Username != "alice" || s.Role != domain.RoleAdmin {
			t.Fatalf("unexpected session: %+v", s)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(resolver.seen) != 1 || resolver.seen[0].TokenID != "token-1" || resolver.seen[0].ExpiresAt.IsZero() {
		t.Fatalf("unexpected identity: %+v", resolver.seen)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	c, _ := newContext("")
	handler := Auth(testSecret, &stubResolver{})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if got := statusOf(handler(c)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noSubject := validClaims()
	delete(noSubject, "sub")
	noExpiry := validClaims()
	delete(noExpiry, "exp")

	cases := map[string]string{
		"wrong scheme":   "Token abc",
		"garbage":        "Bearer not-a-jwt",
		"wrong secret":   "Bearer " + signToken(t, validClaims(), "other"),
		"expired":        "Bearer " + signToken(t, expired, testSecret),
		"missing sub":    "Bearer " + signToken(t, noSubject, testSecret),
		"missing expiry": "Bearer " + signToken(t, noExpiry, testSecret),
	}
	for name, header := range cases {
		c, _ := newContext(header)
		handler := Auth(testSecret, &stubResolver{})(func(c echo.Context) error {
			t.Fatalf("%s: should not reach next", name)
			return nil
		})
		if got := statusOf(handler(c)); got != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, got)
		}
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	c, _ := newContext("Bearer " + signToken(t, validClaims(), testSecret))
	handler := Auth(testSecret, &stubResolver{err: domain.ErrUnauthorized})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthMiddleware_ResolverFailureSurfaces(t *testing.T) {
	c, _ := newContext("Bearer " + signToken(t, validClaims(), testSecret))
	handler := Auth(testSecret, &stubResolver{err: domain.ErrRemoteFailure})(func(c echo.Context) error {
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrRemoteFailure) {
		t.Fatalf("expected ErrRemoteFailure, got %v", err)
	}
}

func TestOptionalAuth_AnonymousWithoutHeader(t *testing.T) {
	c, _ := newContext("")
	handler := OptionalAuth(testSecret, &stubResolver{})(func(c echo.Context) error {
		if s := SessionFrom(c); s.IsLoggedIn || s.EffectiveRole() != domain.RoleBasic {
			t.Fatalf("expected anonymous session, got %+v", s)
		}
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestOptionalAuth_RevokedFallsBackToAnonymous(t *testing.T) {
	c, _ := newContext("Bearer " + signToken(t, validClaims(), testSecret))
	called := false
	handler := OptionalAuth(testSecret, &stubResolver{err: domain.ErrUnauthorized})(func(c echo.Context) error {
		called = true
		if SessionFrom(c).IsLoggedIn {
			t.Fatalf("expected anonymous session")
		}
		return nil
	})
	if err := handler(c); err != nil || !called {
		t.Fatalf("expected next to run, err=%v", err)
	}
}

func TestOptionalAuth_BadTokenRejected(t *testing.T) {
	c, _ := newContext("Bearer not-a-jwt")
	handler := OptionalAuth(testSecret, &stubResolver{})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if got := statusOf(handler(c)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestParseIdentity_UnknownRoleIsBasic(t *testing.T) {
	claims := validClaims()
	claims["role"] = "superuser"
	id, err := ParseIdentity(signToken(t, claims, testSecret), testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.Role != domain.RoleBasic {
		t.Fatalf("expected basic, got %q", id.Role)
	}
}
