package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// FavoriteService keeps the local favorites list and the remote favorites
// table in agreement.
type FavoriteService struct {
	tools     ports.ToolRepository
	favorites ports.FavoriteRepository
	prefs     ports.PreferenceStore
	notifier  ports.ChangeNotifier
	logger    zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewFavoriteService(
	tools ports.ToolRepository,
	favorites ports.FavoriteRepository,
	prefs ports.PreferenceStore,
	notifier ports.ChangeNotifier,
	logger zerolog.Logger,
) *FavoriteService {
	return &FavoriteService{
		tools:     tools,
		favorites: favorites,
		prefs:     prefs,
		notifier:  notifier,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// Toggle flips the favorite state of slug for the session's user. The local
// list is written first, then the remote transaction runs; the remote
// result wins and a remote failure rolls the local entry back. Every local
// write touches only slug, so toggles of other slugs in flight for the same
// user are kept.
//
// A tool that is gone, inactive or above the caller's role can still be
// removed when it is in the user's list; adding it is refused.
func (s *FavoriteService) Toggle(ctx context.Context, session domain.Session, slug string) (*ports.ToggleResult, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.ErrValidation
	}
	userID := session.UserID

	if err := s.checkToggle(ctx, session, slug); err != nil {
		if !errors.Is(err, domain.ErrToolNotFound) && !errors.Is(err, domain.ErrForbidden) {
			return nil, err
		}
		current, lerr := s.prefs.GetList(ctx, userID, domain.KeyFavorites)
		if lerr != nil || domain.StateOf(current, slug) != domain.Favorited {
			return nil, err
		}
		return s.unfavorite(ctx, userID, slug)
	}

	release, ok := s.acquire(userID, slug)
	if !ok {
		return nil, domain.ErrToggleInFlight
	}
	defer release()

	var before domain.FavoriteState
	optimistic, err := s.prefs.UpdateList(ctx, userID, domain.KeyFavorites, func(current []string) []string {
		before = domain.StateOf(current, slug)
		return domain.WithFavorite(current, slug, before.Next())
	})
	if err != nil {
		return nil, fmt.Errorf("write favorites: %w: %w", domain.ErrRemoteFailure, err)
	}

	favorited, err := s.favorites.Toggle(ctx, userID, slug)
	if err != nil {
		s.rollback(ctx, userID, slug, before)
		return nil, fmt.Errorf("toggle favorite: %w: %w", domain.ErrRemoteFailure, err)
	}

	state := domain.NotFavorited
	if favorited {
		state = domain.Favorited
	}
	final := optimistic
	if state != before.Next() {
		s.logger.Warn().Str("user_id", userID).Str("slug", slug).Msg("local favorites out of sync, adopting remote state")
		final = s.settle(ctx, userID, slug, state, optimistic)
	}

	s.notifier.Notify(ctx, userID)
	s.logger.Info().Str("user_id", userID).Str("slug", slug).Bool("favorited", favorited).Msg("favorite toggled")

	return &ports.ToggleResult{Slug: slug, State: state, Favorites: final}, nil
}

// checkToggle reports whether the caller may favorite slug.
func (s *FavoriteService) checkToggle(ctx context.Context, session domain.Session, slug string) error {
	tool, err := s.tools.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			return err
		}
		return fmt.Errorf("find tool: %w: %w", domain.ErrRemoteFailure, err)
	}
	if !tool.IsActive {
		return domain.ErrToolNotFound
	}
	if !domain.IsVisible(tool, session.EffectiveRole()) {
		return domain.ErrForbidden
	}
	return nil
}

// unfavorite drops slug from both lists without consulting the catalog.
func (s *FavoriteService) unfavorite(ctx context.Context, userID, slug string) (*ports.ToggleResult, error) {
	release, ok := s.acquire(userID, slug)
	if !ok {
		return nil, domain.ErrToggleInFlight
	}
	defer release()

	if _, err := s.favorites.Remove(ctx, userID, slug); err != nil {
		return nil, fmt.Errorf("remove favorite: %w: %w", domain.ErrRemoteFailure, err)
	}
	final := s.settle(ctx, userID, slug, domain.NotFavorited, nil)

	s.notifier.Notify(ctx, userID)
	s.logger.Info().Str("user_id", userID).Str("slug", slug).Msg("unavailable tool removed from favorites")

	return &ports.ToggleResult{Slug: slug, State: domain.NotFavorited, Favorites: final}, nil
}

// settle sets slug to state in the stored list and returns the list. On a
// write failure it returns fallback with slug set to state.
func (s *FavoriteService) settle(ctx context.Context, userID, slug string, state domain.FavoriteState, fallback []string) []string {
	final, err := s.prefs.UpdateList(context.WithoutCancel(ctx), userID, domain.KeyFavorites, func(current []string) []string {
		return domain.WithFavorite(current, slug, state)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("slug", slug).Msg("favorites resync failed")
		return nonNil(domain.WithFavorite(fallback, slug, state))
	}
	return final
}

// rollback restores slug to its state before the toggle. Other entries are
// left as they are now.
func (s *FavoriteService) rollback(ctx context.Context, userID, slug string, before domain.FavoriteState) {
	ctx = context.WithoutCancel(ctx)
	_, err := s.prefs.UpdateList(ctx, userID, domain.KeyFavorites, func(current []string) []string {
		return domain.WithFavorite(current, slug, before)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("slug", slug).Msg("favorites rollback failed")
	} else {
		s.logger.Warn().Str("user_id", userID).Str("slug", slug).Msg("favorite toggle rolled back")
	}
	s.notifier.Notify(ctx, userID)
}

func (s *FavoriteService) acquire(userID, slug string) (func(), bool) {
	key := userID + "\x00" + slug
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return nil, false
	}
	s.inFlight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}, true
}

// List resolves the user's favorites against the catalog in stored order.
// Slugs the catalog does not know, or the caller may not see, are skipped.
func (s *FavoriteService) List(ctx context.Context, session domain.Session) ([]*domain.Tool, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	slugs, err := s.Slugs(ctx, session)
	if err != nil {
		return nil, err
	}

	role := session.EffectiveRole()
	tools := make([]*domain.Tool, 0, len(slugs))
	for _, slug := range slugs {
		tool, err := s.tools.FindBySlug(ctx, slug)
		if err != nil {
			if !errors.Is(err, domain.ErrToolNotFound) {
				s.logger.Warn().Err(err).Str("slug", slug).Msg("favorite lookup failed")
			}
			continue
		}
		if !tool.IsActive || !domain.IsVisible(tool, role) {
			continue
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// Slugs returns the stored favorites. The local list is preferred; when it
// cannot be read the remote table is used, and when that fails too the
// result is empty.
func (s *FavoriteService) Slugs(ctx context.Context, session domain.Session) ([]string, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	slugs, err := s.prefs.GetList(ctx, session.UserID, domain.KeyFavorites)
	if err == nil {
		return nonNil(slugs), nil
	}
	s.logger.Warn().Err(err).Str("user_id", session.UserID).Msg("local favorites unreadable, using remote")

	slugs, err = s.favorites.ListSlugs(ctx, session.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", session.UserID).Msg("remote favorites unreadable")
		return []string{}, nil
	}
	return nonNil(slugs), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
