// Package memory holds the static, in-process catalog used when no Mongo URI
// is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

type ToolRepository struct {
	mu    sync.RWMutex
	tools map[string]*domain.Tool
}

func NewToolRepository(seed ...*domain.Tool) *ToolRepository {
	r := &ToolRepository{tools: make(map[string]*domain.Tool, len(seed))}
	_ = r.UpsertMany(context.Background(), seed)
	return r
}

func (r *ToolRepository) List(_ context.Context, q domain.ToolQuery) ([]*domain.Tool, int64, error) {
	r.mu.RLock()
	matched := make([]*domain.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		if q.Matches(t) {
			matched = append(matched, clone(t))
		}
	}
	r.mu.RUnlock()

	domain.SortTools(matched, q.Sort)
	return domain.Page(matched, q.Offset, q.Limit), int64(len(matched)), nil
}

func (r *ToolRepository) FindBySlug(_ context.Context, slug string) (*domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[slug]
	if !ok {
		return nil, domain.ErrToolNotFound
	}
	return clone(t), nil
}

func (r *ToolRepository) Categories(_ context.Context, role domain.Role) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	out := []string{}
	for _, t := range r.tools {
		if !t.IsActive || !domain.IsVisible(t, role) || t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r *ToolRepository) Slugs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for slug := range r.tools {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out, nil
}

// UpsertMany replaces tools by slug, keeping the likes counter and creation
// time of entries that already exist.
func (r *ToolRepository) UpsertMany(_ context.Context, tools []*domain.Tool) error {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		if t == nil || t.Slug == "" {
			continue
		}
		c := clone(t)
		c.UpdatedAt = now
		if prev, ok := r.tools[t.Slug]; ok {
			c.LikesCount = prev.LikesCount
			c.CreatedAt = prev.CreatedAt
		} else if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		r.tools[t.Slug] = c
	}
	return nil
}

func (r *ToolRepository) IncrementLikes(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[slug]
	if !ok {
		return domain.ErrToolNotFound
	}
	t.LikesCount++
	return nil
}

func (r *ToolRepository) DecrementLikes(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[slug]
	if !ok {
		return domain.ErrToolNotFound
	}
	if t.LikesCount > 0 {
		t.LikesCount--
	}
	return nil
}

func (r *ToolRepository) SetLikes(_ context.Context, slug string, likes int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[slug]
	if !ok {
		return 0, domain.ErrToolNotFound
	}
	prev := t.LikesCount
	t.LikesCount = likes
	return prev, nil
}

func clone(t *domain.Tool) *domain.Tool {
	c := *t
	c.Tags = append([]string(nil), t.Tags...)
	return &c
}
