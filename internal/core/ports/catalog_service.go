package ports

import (
	"context"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// ListToolsInput carries all parameters of a catalog listing. Role is
// filled from the caller's session, never from the request.
type ListToolsInput struct {
	Category    string
	Subcategory string
	IsPopular   *bool
	IsNew       *bool
	IsPremium   *bool
	IsPrivate   *bool
	Search      string
	Sort        string
	Limit       int
	Offset      int
	Page        int // 1-based; ignored when Offset > 0
	Role        domain.Role
}

// ListToolsResult is returned by List.
type ListToolsResult struct {
	Items      []*domain.Tool
	Total      int64
	Limit      int
	Offset     int
	Page       int
	TotalPages int
	// Degraded is set when the backend read failed and an empty page was
	// served instead.
	Degraded bool
}

// CatalogService is the tool catalog provider.
type CatalogService interface {
	List(ctx context.Context, input ListToolsInput) (*ListToolsResult, error)
	Get(ctx context.Context, slug string, role domain.Role) (*domain.Tool, error)
	Categories(ctx context.Context, role domain.Role) ([]string, error)
}
