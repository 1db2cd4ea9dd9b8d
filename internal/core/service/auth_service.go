package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// AuthService implements registration, sign-in and sign-out.
type AuthService struct {
	repo      ports.UserRepository
	prefs     ports.PreferenceStore
	notifier  ports.ChangeNotifier
	revoker   ports.TokenRevoker
	favorites ports.FavoriteRepository
	developer *DeveloperLogin
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// AuthOption configures optional AuthService behavior.
type AuthOption func(*AuthService)

// WithDeveloperLogin enables the developer credential pair.
func WithDeveloperLogin(d *DeveloperLogin) AuthOption {
	return func(s *AuthService) { s.developer = d }
}

// WithFavoritesSource hydrates the local favorites list from the remote
// table on every sign-in.
func WithFavoritesSource(repo ports.FavoriteRepository) AuthOption {
	return func(s *AuthService) { s.favorites = repo }
}

// WithTokenRevoker lets SignOut invalidate the presented token.
func WithTokenRevoker(r ports.TokenRevoker) AuthOption {
	return func(s *AuthService) { s.revoker = r }
}

func NewAuthService(
	repo ports.UserRepository,
	prefs ports.PreferenceStore,
	notifier ports.ChangeNotifier,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		repo:      repo,
		prefs:     prefs,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a basic account and signs it in.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*ports.LoginResult, error) {
	if password == "" {
		return nil, domain.ErrValidation
	}
	if s.developer.Matches(domain.NormalizeEmail(email), password) {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(username, email, string(hash), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", created.ID).Msg("user registered")

	return s.signIn(ctx, created, false, defaultRedirect)
}

// Login checks the developer pair first, then the user repository.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.developer.Matches(email, password) {
		s.logger.Info().Msg("developer sign-in")
		return s.signIn(ctx, s.developer.user(), true, developerRedirect)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.signIn(ctx, user, false, defaultRedirect)
}

// SignOut clears the session keys and revokes the presented token.
func (s *AuthService) SignOut(ctx context.Context, session domain.Session) error {
	if session.UserID == "" {
		return domain.ErrUnauthorized
	}

	if err := s.prefs.Remove(ctx, session.UserID, domain.SessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w: %w", domain.ErrRemoteFailure, err)
	}

	if s.revoker != nil && session.TokenID != "" {
		if ttl := time.Until(session.ExpiresAt); ttl > 0 {
			if err := s.revoker.Revoke(ctx, session.TokenID, ttl); err != nil {
				s.logger.Warn().Err(err).Str("user_id", session.UserID).Msg("token revocation failed")
			}
		}
	}

	s.notifier.Notify(ctx, session.UserID)
	s.logger.Info().Str("user_id", session.UserID).Msg("signed out")
	return nil
}

func (s *AuthService) signIn(ctx context.Context, user *domain.User, developer bool, redirect string) (*ports.LoginResult, error) {
	premium := user.IsPremium()
	err := s.prefs.SetMany(ctx, user.ID, map[string]string{
		domain.KeyIsLoggedIn:  "true",
		domain.KeyIsDeveloper: strconv.FormatBool(developer),
		domain.KeyIsPremium:   strconv.FormatBool(premium),
		domain.KeyUsername:    user.Username,
		domain.KeyEmail:       user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w: %w", domain.ErrRemoteFailure, err)
	}

	if s.favorites != nil && !developer {
		s.hydrateFavorites(ctx, user.ID)
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	tokenID := uuid.NewString()
	token, err := s.generateToken(user, tokenID, now, expiresAt)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, user.ID)

	return &ports.LoginResult{
		Token: token,
		Session: domain.Session{
			UserID:      user.ID,
			Username:    user.Username,
			Email:       user.Email,
			Role:        user.Role,
			TokenID:     tokenID,
			ExpiresAt:   expiresAt.UTC(),
			IsLoggedIn:  true,
			IsPremium:   premium,
			IsAdmin:     user.Role == domain.RoleAdmin,
			IsDeveloper: developer,
		},
		Redirect: redirect,
	}, nil
}

// hydrateFavorites copies the remote favorites into the local list. A
// failure leaves the local list untouched.
func (s *AuthService) hydrateFavorites(ctx context.Context, userID string) {
	slugs, err := s.favorites.ListSlugs(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("favorites hydration skipped")
		return
	}
	if err := s.prefs.SetList(ctx, userID, domain.KeyFavorites, slugs); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("favorites hydration failed")
	}
}

func (s *AuthService) generateToken(user *domain.User, tokenID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     string(user.Role),
		"jti":      tokenID,
		"iat":      issuedAt.Unix(),
		"exp":      expiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
