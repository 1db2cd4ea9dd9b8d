package ports

import (
	"context"
	"time"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// LoginResult is returned by a successful sign-in.
type LoginResult struct {
	Token    string
	Session  domain.Session
	Redirect string
}

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*LoginResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	SignOut(ctx context.Context, session domain.Session) error
}

// TokenRevoker remembers signed-out token ids until they would have expired.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionResolver turns a verified token identity into the derived session.
type SessionResolver interface {
	Resolve(ctx context.Context, id domain.Identity) (domain.Session, error)
}
