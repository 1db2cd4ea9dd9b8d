package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// FavoriteRepository keeps favorite rows in process. Row and counter change
// under one lock, matching the transactional Mongo implementation.
type FavoriteRepository struct {
	mu    sync.Mutex
	tools *ToolRepository
	rows  map[string][]string

	// afterCount runs inside RecountLikes between counting and writing.
	afterCount func()
}

func NewFavoriteRepository(tools *ToolRepository) *FavoriteRepository {
	return &FavoriteRepository{tools: tools, rows: make(map[string][]string)}
}

func (r *FavoriteRepository) Toggle(ctx context.Context, userID, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if removed, err := r.remove(ctx, userID, slug); err != nil || removed {
		return false, err
	}
	if err := r.tools.IncrementLikes(ctx, slug); err != nil {
		return false, err
	}
	r.rows[userID] = append(slices.Clone(r.rows[userID]), slug)
	return true, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remove(ctx, userID, slug)
}

// remove deletes the row; a tool missing from the catalog has no counter
// left to adjust.
func (r *FavoriteRepository) remove(ctx context.Context, userID, slug string) (bool, error) {
	rows := r.rows[userID]
	i := slices.Index(rows, slug)
	if i < 0 {
		return false, nil
	}
	if err := r.tools.DecrementLikes(ctx, slug); err != nil && !errors.Is(err, domain.ErrToolNotFound) {
		return false, err
	}
	r.rows[userID] = slices.Delete(slices.Clone(rows), i, i+1)
	return true, nil
}

func (r *FavoriteRepository) ListSlugs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.rows[userID]...), nil
}

func (r *FavoriteRepository) CountBySlug(_ context.Context, slug string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count(slug), nil
}

// RecountLikes holds the row lock across count and write, so toggles wait
// for it instead of being overwritten.
func (r *FavoriteRepository) RecountLikes(ctx context.Context, slug string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.count(slug)
	if r.afterCount != nil {
		r.afterCount()
	}
	prev, err := r.tools.SetLikes(ctx, slug, n)
	if err != nil {
		return 0, 0, err
	}
	return prev, n, nil
}

func (r *FavoriteRepository) count(slug string) int64 {
	var n int64
	for _, rows := range r.rows {
		if slices.Contains(rows, slug) {
			n++
		}
	}
	return n
}
