package ports

import (
	"context"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// ToolRepository defines persistence operations for the catalog. Every
// implementation applies domain.IsVisible for q.Role at the query boundary.
type ToolRepository interface {
	// List returns a page of tools matching q and the total match count.
	List(ctx context.Context, q domain.ToolQuery) ([]*domain.Tool, int64, error)
	// FindBySlug returns an active tool regardless of role; callers apply
	// the access filter.
	FindBySlug(ctx context.Context, slug string) (*domain.Tool, error)
	// Categories returns the distinct categories of active tools visible
	// to role, sorted.
	Categories(ctx context.Context, role domain.Role) ([]string, error)
	// Slugs returns every stored slug, active or not.
	Slugs(ctx context.Context) ([]string, error)
	// UpsertMany loads seed data keyed by slug. Existing likes counts are
	// preserved.
	UpsertMany(ctx context.Context, tools []*domain.Tool) error

	// IncrementLikes and DecrementLikes are the counter adjustment
	// operations. They are server-side increments, never read-modify-write.
	// DecrementLikes never takes the counter below zero.
	IncrementLikes(ctx context.Context, slug string) error
	DecrementLikes(ctx context.Context, slug string) error
}
