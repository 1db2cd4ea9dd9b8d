package domain

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Tool is a catalog entry. Clients never mutate it; likes_count moves only
// through the favorites transaction and the reconciliation job.
type Tool struct {
	ID          string    `json:"id" bson:"_id,omitempty" yaml:"-"`
	Slug        string    `json:"slug" bson:"slug" yaml:"slug"`
	Name        string    `json:"name" bson:"name" yaml:"name"`
	Description string    `json:"description" bson:"description" yaml:"description"`
	Category    string    `json:"category" bson:"category" yaml:"category"`
	Subcategory string    `json:"subcategory,omitempty" bson:"subcategory,omitempty" yaml:"subcategory"`
	Tags        []string  `json:"tags" bson:"tags" yaml:"tags"`
	Href        string    `json:"href" bson:"href" yaml:"href"`
	Icon        string    `json:"icon,omitempty" bson:"icon,omitempty" yaml:"icon"`
	IsNew       bool      `json:"is_new" bson:"is_new" yaml:"new"`
	IsPopular   bool      `json:"is_popular" bson:"is_popular" yaml:"popular"`
	IsPremium   bool      `json:"is_premium" bson:"is_premium" yaml:"premium"`
	IsPrivate   bool      `json:"is_private" bson:"is_private" yaml:"private"`
	IsActive    bool      `json:"is_active" bson:"is_active" yaml:"-"`
	LikesCount  int64     `json:"likes_count" bson:"likes_count" yaml:"likes"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" yaml:"-"`
}

// ToolSort selects the ordering of a catalog listing.
type ToolSort string

const (
	SortPopular ToolSort = "popular"
	SortNew     ToolSort = "new"
	SortName    ToolSort = "name"
)

// ParseToolSort falls back to SortPopular for empty or unknown values.
func ParseToolSort(s string) ToolSort {
	switch ToolSort(strings.ToLower(strings.TrimSpace(s))) {
	case SortNew:
		return SortNew
	case SortName:
		return SortName
	default:
		return SortPopular
	}
}

// CategoryAll is the pseudo-category meaning "no category filter".
const CategoryAll = "all"

// ToolQuery is the repository-level catalog query. Role is always set by the
// service layer from the caller's session.
type ToolQuery struct {
	Category    string
	Subcategory string
	IsPopular   *bool
	IsNew       *bool
	IsPremium   *bool
	IsPrivate   *bool
	Search      string
	Role        Role
	Sort        ToolSort
	Limit       int
	Offset      int
}

// HasCategory reports whether the query narrows by category.
func (q ToolQuery) HasCategory() bool {
	return q.Category != "" && q.Category != CategoryAll
}

// Matches evaluates the whole query against one tool: active flag, access
// filter, category and flag filters, then search.
func (q ToolQuery) Matches(t *Tool) bool {
	if t == nil || !t.IsActive {
		return false
	}
	if !IsVisible(t, q.Role) {
		return false
	}
	if q.HasCategory() && t.Category != q.Category {
		return false
	}
	if q.Subcategory != "" && t.Subcategory != q.Subcategory {
		return false
	}
	if !flagMatches(q.IsPopular, t.IsPopular) ||
		!flagMatches(q.IsNew, t.IsNew) ||
		!flagMatches(q.IsPremium, t.IsPremium) ||
		!flagMatches(q.IsPrivate, t.IsPrivate) {
		return false
	}
	return MatchesSearch(t, q.Search)
}

func flagMatches(want *bool, got bool) bool {
	return want == nil || *want == got
}

// MatchesSearch is a case-insensitive substring match over name,
// description and tags. An empty query matches everything.
func MatchesSearch(t *Tool, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	fold := cases.Fold()
	needle := fold.String(query)
	if strings.Contains(fold.String(t.Name), needle) ||
		strings.Contains(fold.String(t.Description), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(fold.String(tag), needle) {
			return true
		}
	}
	return false
}

// SortTools orders tools in place. Ties always end on slug so that
// pagination over the same data is stable.
func SortTools(tools []*Tool, order ToolSort) {
	sort.SliceStable(tools, func(i, j int) bool {
		a, b := tools[i], tools[j]
		switch order {
		case SortNew:
			if a.IsNew != b.IsNew {
				return a.IsNew
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		case SortName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if a.LikesCount != b.LikesCount {
				return a.LikesCount > b.LikesCount
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.Slug < b.Slug
	})
}

// Page returns the [offset, offset+limit) window of tools. A non-positive
// limit returns everything after offset.
func Page(tools []*Tool, offset, limit int) []*Tool {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tools) {
		return []*Tool{}
	}
	end := len(tools)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return tools[offset:end]
}

// TotalPages is ceil(total/limit), and 0 for an empty result.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
