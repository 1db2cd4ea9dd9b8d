package ports

import "context"

// FavoriteRepository is the remote user_favorites table. Every row change
// moves the tool's likes counter in the same transaction.
type FavoriteRepository interface {
	// Toggle flips membership of (userID, slug) and returns the new state.
	Toggle(ctx context.Context, userID, slug string) (favorited bool, err error)
	// Remove deletes the (userID, slug) row if present. It works for tools
	// that are hidden, inactive or gone from the catalog.
	Remove(ctx context.Context, userID, slug string) (removed bool, err error)
	// ListSlugs returns the user's favorite slugs, oldest first.
	ListSlugs(ctx context.Context, userID string) ([]string, error)
	// CountBySlug counts favorite rows referencing slug.
	CountBySlug(ctx context.Context, slug string) (int64, error)
	// RecountLikes sets the tool's likes counter to the number of rows
	// referencing it. Counting and writing are isolated from concurrent
	// toggles, so none of their adjustments is overwritten.
	RecountLikes(ctx context.Context, slug string) (previous, current int64, err error)
}
