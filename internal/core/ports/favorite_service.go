package ports

import (
	"context"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// ToggleResult reports the state after a toggle.
type ToggleResult struct {
	Slug      string
	State     domain.FavoriteState
	Favorites []string
}

// FavoriteService is the favorites reconciler.
type FavoriteService interface {
	Toggle(ctx context.Context, session domain.Session, slug string) (*ToggleResult, error)
	List(ctx context.Context, session domain.Session) ([]*domain.Tool, error)
	Slugs(ctx context.Context, session domain.Session) ([]string, error)
}
