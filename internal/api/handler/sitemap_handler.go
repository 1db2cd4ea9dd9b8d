package handler

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

const (
	sitemapNS        = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapPageLimit = 100
)

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitePages are the fixed pages listed ahead of the tools.
var sitePages = []struct {
	path     string
	freq     string
	priority float64
}{
	{"", "daily", 1},
	{"/tools", "daily", 0.9},
	{"/login", "monthly", 0.5},
	{"/signup", "monthly", 0.5},
	{"/premium", "weekly", 0.7},
	{"/corporate", "monthly", 0.6},
	{"/contact", "monthly", 0.6},
	{"/privacy-policy", "yearly", 0.3},
	{"/terms", "yearly", 0.3},
}

// SitemapHandler lists the public pages and every tool an anonymous visitor
// can open.
type SitemapHandler struct {
	catalog ports.CatalogService
	baseURL string
	now     func() time.Time
}

func NewSitemapHandler(catalog ports.CatalogService, baseURL string) *SitemapHandler {
	return &SitemapHandler{catalog: catalog, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// Sitemap handles GET /sitemap.xml.
//
// @Summary      Sitemap of public pages and basic-tier tools
// @Tags         catalog
// @Produce      xml
// @Success      200
// @Router       /sitemap.xml [get]
func (h *SitemapHandler) Sitemap(c echo.Context) error {
	ctx := c.Request().Context()
	today := h.now().UTC().Format(time.DateOnly)

	set := sitemapURLSet{XMLNS: sitemapNS}
	for _, p := range sitePages {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.baseURL + p.path, LastMod: today, ChangeFreq: p.freq, Priority: p.priority})
	}

	for page := 1; ; page++ {
		res, err := h.catalog.List(ctx, ports.ListToolsInput{Role: domain.RoleBasic, Sort: "name", Limit: sitemapPageLimit, Page: page})
		if err != nil {
			return err
		}
		for _, t := range res.Items {
			u := sitemapURL{Loc: h.baseURL + "/tools/" + t.Slug, ChangeFreq: "weekly", Priority: 0.8}
			if !t.UpdatedAt.IsZero() {
				u.LastMod = t.UpdatedAt.UTC().Format(time.DateOnly)
			}
			set.URLs = append(set.URLs, u)
		}
		if res.Degraded || page >= res.TotalPages {
			break
		}
	}

	return c.XML(http.StatusOK, set)
}
