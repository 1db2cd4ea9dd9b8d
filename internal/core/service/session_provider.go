package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

const maxCachedSessions = 10000

// sessionFlags is the part of a session derived from the preference store.
type sessionFlags struct {
	loggedIn  bool
	premium   bool
	developer bool
	username  string
	email     string
}

// SessionProvider is the single place a domain.Session is derived. It reads
// the session keys of the preference store once per user and keeps the
// result until a change notification for that user arrives.
type SessionProvider struct {
	prefs   ports.PreferenceStore
	revoker ports.TokenRevoker
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]sessionFlags
	gen   map[string]uint64

	stop func()
}

// NewSessionProvider returns a provider reading from prefs. revoker may be
// nil, in which case signed-out tokens stay valid until they expire.
func NewSessionProvider(prefs ports.PreferenceStore, revoker ports.TokenRevoker, log zerolog.Logger) *SessionProvider {
	return &SessionProvider{
		prefs:   prefs,
		revoker: revoker,
		log:     log,
		cache:   make(map[string]sessionFlags),
		gen:     make(map[string]uint64),
	}
}

// Start subscribes the provider to change notifications. Calling it more
// than once has no effect.
func (p *SessionProvider) Start(observer ports.ChangeObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = observer.Observe(p.invalidate)
}

// Stop unsubscribes from change notifications.
func (p *SessionProvider) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (p *SessionProvider) invalidate(userID string) {
	p.mu.Lock()
	delete(p.cache, userID)
	p.gen[userID]++
	p.mu.Unlock()
}

// Resolve derives the session for a verified token identity.
func (p *SessionProvider) Resolve(ctx context.Context, id domain.Identity) (domain.Session, error) {
	if id.UserID == "" {
		return domain.Anonymous(), domain.ErrUnauthorized
	}

	if p.revoker != nil && id.TokenID != "" {
		revoked, err := p.revoker.IsRevoked(ctx, id.TokenID)
		if err != nil {
			return domain.Anonymous(), fmt.Errorf("resolve session: %w: %w", domain.ErrRemoteFailure, err)
		}
		if revoked {
			return domain.Anonymous(), domain.ErrUnauthorized
		}
	}

	flags, err := p.flags(ctx, id.UserID)
	if err != nil {
		return domain.Anonymous(), err
	}

	role := domain.ParseRole(string(id.Role))
	s := domain.Session{
		UserID:      id.UserID,
		Username:    firstNonEmpty(flags.username, id.Username),
		Email:       firstNonEmpty(flags.email, id.Email),
		Role:        role,
		TokenID:     id.TokenID,
		ExpiresAt:   id.ExpiresAt,
		IsLoggedIn:  flags.loggedIn,
		IsPremium:   role == domain.RolePremium || flags.premium,
		IsAdmin:     role == domain.RoleAdmin,
		IsDeveloper: role == domain.RoleDeveloper || flags.developer,
	}
	return s, nil
}

func (p *SessionProvider) flags(ctx context.Context, userID string) (sessionFlags, error) {
	p.mu.Lock()
	if f, ok := p.cache[userID]; ok {
		p.mu.Unlock()
		return f, nil
	}
	gen := p.gen[userID]
	p.mu.Unlock()

	values, err := p.prefs.GetAll(ctx, userID)
	if err != nil {
		return sessionFlags{}, fmt.Errorf("read session keys: %w: %w", domain.ErrRemoteFailure, err)
	}
	f := sessionFlags{
		loggedIn:  values[domain.KeyIsLoggedIn] == "true",
		premium:   values[domain.KeyIsPremium] == "true",
		developer: values[domain.KeyIsDeveloper] == "true",
		username:  values[domain.KeyUsername],
		email:     values[domain.KeyEmail],
	}

	p.mu.Lock()
	// A notification that arrived during the read makes this result stale.
	if p.gen[userID] == gen {
		if len(p.cache) >= maxCachedSessions {
			p.cache = make(map[string]sessionFlags)
		}
		p.cache[userID] = f
	}
	p.mu.Unlock()

	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
