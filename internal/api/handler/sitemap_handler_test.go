package handler

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// pagedCatalog serves n tools in pages of the requested size.
type pagedCatalog struct {
	stubCatalog
	n     int
	roles []domain.Role
}

func (p *pagedCatalog) List(_ context.Context, in ports.ListToolsInput) (*ports.ListToolsResult, error) {
	p.roles = append(p.roles, in.Role)
	res := &ports.ListToolsResult{Total: int64(p.n), Limit: in.Limit, Page: in.Page, TotalPages: domain.TotalPages(int64(p.n), in.Limit)}
	for i := (in.Page - 1) * in.Limit; i < p.n && i < in.Page*in.Limit; i++ {
		res.Items = append(res.Items, &domain.Tool{Slug: fmt.Sprintf("tool-%03d", i)})
	}
	return res, nil
}

func TestSitemapHandler_PagesThroughCatalog(t *testing.T) {
	catalog := &pagedCatalog{n: 230}
	h := NewSitemapHandler(catalog, "https://example.test")
	h.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil), rec)
	if err := h.Sitemap(c); err != nil {
		t.Fatalf("Sitemap returned error: %v", err)
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("invalid XML: %v", err)
	}
	if got, want := len(set.URLs), len(sitePages)+230; got != want {
		t.Fatalf("expected %d urls, got %d", want, got)
	}
	if set.URLs[0].Loc != "https://example.test" || set.URLs[0].LastMod != "2026-05-01" {
		t.Fatalf("unexpected first entry %+v", set.URLs[0])
	}
	if last := set.URLs[len(set.URLs)-1].Loc; last != "https://example.test/tools/tool-229" {
		t.Fatalf("unexpected last entry %s", last)
	}
	if len(catalog.roles) != 3 {
		t.Fatalf("expected 3 catalog pages, got %d", len(catalog.roles))
	}
	for _, r := range catalog.roles {
		if r != domain.RoleBasic {
			t.Fatalf("sitemap must list the basic tier only, got %s", r)
		}
	}
}

func TestSitemapHandler_DegradedCatalog(t *testing.T) {
	catalog := &stubCatalog{result: &ports.ListToolsResult{Items: []*domain.Tool{}, Degraded: true}}
	h := NewSitemapHandler(catalog, "https://example.test/")

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil), rec)
	if err := h.Sitemap(c); err != nil {
		t.Fatalf("Sitemap returned error: %v", err)
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("invalid XML: %v", err)
	}
	if len(set.URLs) != len(sitePages) || set.URLs[1].Loc != "https://example.test/tools" {
		t.Fatalf("degraded catalog should still list the fixed pages, got %+v", set.URLs)
	}
}
