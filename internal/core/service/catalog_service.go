package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

const (
	defaultLimit = 15
	maxLimit     = 100
	// maxOffset bounds how deep a listing may page.
	maxOffset = 100_000
)

// CatalogService serves the tool catalog filtered by the caller's role.
type CatalogService struct {
	repo   ports.ToolRepository
	logger zerolog.Logger
}

func NewCatalogService(repo ports.ToolRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// List returns one page of visible tools. A backend read failure is logged
// and served as an empty, degraded page. Pages past maxOffset are rejected
// with ErrValidation.
func (s *CatalogService) List(ctx context.Context, input ports.ListToolsInput) (*ports.ListToolsResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := input.Offset
	page := input.Page
	if offset > maxOffset || page > maxOffset/limit+1 {
		return nil, domain.ErrValidation
	}
	switch {
	case offset > 0:
		page = offset/limit + 1
	case page > 1:
		offset = (page - 1) * limit
	default:
		offset, page = 0, 1
	}

	q := domain.ToolQuery{
		Category:    strings.TrimSpace(input.Category),
		Subcategory: strings.TrimSpace(input.Subcategory),
		IsPopular:   input.IsPopular,
		IsNew:       input.IsNew,
		IsPremium:   input.IsPremium,
		IsPrivate:   input.IsPrivate,
		Search:      strings.TrimSpace(input.Search),
		Role:        domain.ParseRole(string(input.Role)),
		Sort:        domain.ParseToolSort(input.Sort),
		Limit:       limit,
		Offset:      offset,
	}

	result := &ports.ListToolsResult{
		Items:  []*domain.Tool{},
		Limit:  limit,
		Offset: offset,
		Page:   page,
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error().Err(err).Str("category", q.Category).Str("search", q.Search).Msg("catalog read failed, serving empty page")
		result.Degraded = true
		return result, nil
	}

	if items != nil {
		result.Items = items
	}
	result.Total = total
	result.TotalPages = domain.TotalPages(total, limit)
	return result, nil
}

// Get returns a single tool if it exists and the role may see it.
func (s *CatalogService) Get(ctx context.Context, slug string, role domain.Role) (*domain.Tool, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.ErrValidation
	}

	tool, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			return nil, err
		}
		return nil, errors.Join(domain.ErrRemoteFailure, err)
	}
	if !tool.IsActive {
		return nil, domain.ErrToolNotFound
	}
	if !domain.IsVisible(tool, role) {
		return nil, domain.ErrForbidden
	}
	return tool, nil
}

// Categories lists the categories the role can see. Read failures degrade
// to an empty list.
func (s *CatalogService) Categories(ctx context.Context, role domain.Role) ([]string, error) {
	categories, err := s.repo.Categories(ctx, domain.ParseRole(string(role)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error().Err(err).Msg("categories read failed")
		return []string{}, nil
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}
