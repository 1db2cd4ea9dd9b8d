package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// --- Request → Service input ---

// toListInput reads the catalog query string. The role always comes from
// the session.
func toListInput(c echo.Context, session domain.Session) (ports.ListToolsInput, error) {
	in := ports.ListToolsInput{
		Category:    strings.TrimSpace(c.QueryParam("category")),
		Subcategory: strings.TrimSpace(c.QueryParam("subcategory")),
		Search:      c.QueryParam("search"),
		Sort:        c.QueryParam("sort"),
		Role:        session.EffectiveRole(),
	}

	var err error
	flags := []struct {
		name string
		dst  **bool
	}{
		{"popular", &in.IsPopular},
		{"new", &in.IsNew},
		{"premium", &in.IsPremium},
		{"private", &in.IsPrivate},
	}
	for _, f := range flags {
		if *f.dst, err = queryBool(c, f.name); err != nil {
			return in, err
		}
	}

	if in.Limit, err = queryInt(c, "limit"); err != nil {
		return in, err
	}
	if in.Offset, err = queryInt(c, "offset"); err != nil {
		return in, err
	}
	if in.Page, err = queryInt(c, "page"); err != nil {
		return in, err
	}
	return in, nil
}

// queryBool parses a tri-state flag: absent means "no filter".
func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a boolean", name))
	}
	return &b, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

func toPreference(key string, req preferenceRequest) (ports.Preference, error) {
	switch {
	case req.Value != nil && req.Values != nil:
		return ports.Preference{}, echo.NewHTTPError(http.StatusBadRequest, "send either value or values")
	case req.Value != nil:
		return ports.Preference{Key: key, Value: *req.Value}, nil
	case req.Values != nil:
		return ports.Preference{Key: key, Values: req.Values, IsList: true}, nil
	default:
		return ports.Preference{}, echo.NewHTTPError(http.StatusBadRequest, "value or values is required")
	}
}

// --- Domain → Response ---

func toToolResponse(t *domain.Tool) toolResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return toolResponse{
		Slug:        t.Slug,
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Tags:        tags,
		Href:        t.Href,
		Icon:        t.Icon,
		IsNew:       t.IsNew,
		IsPopular:   t.IsPopular,
		IsPremium:   t.IsPremium,
		IsPrivate:   t.IsPrivate,
		LikesCount:  t.LikesCount,
		CreatedAt:   t.CreatedAt,
	}
}

func toToolResponses(tools []*domain.Tool) []toolResponse {
	out := make([]toolResponse, 0, len(tools))
	for _, t := range tools {
		out = append(out, toToolResponse(t))
	}
	return out
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		UserID:      s.UserID,
		Username:    s.Username,
		Email:       s.Email,
		Role:        string(s.EffectiveRole()),
		IsLoggedIn:  s.IsLoggedIn,
		IsPremium:   s.IsPremium,
		IsAdmin:     s.IsAdmin,
		IsDeveloper: s.IsDeveloper,
		ExpiresAt:   s.ExpiresAt,
	}
}

func toPreferenceResponse(p *ports.Preference) preferenceResponse {
	resp := preferenceResponse{Key: p.Key, Value: p.Value, IsList: p.IsList}
	if p.IsList {
		resp.Values = p.Values
		if resp.Values == nil {
			resp.Values = []string{}
		}
	}
	return resp
}
