package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	require.NoError(t, h(c))

	var resp readinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestLiveness(t *testing.T) {
	rec, _ := serve(t, NewHealthHandler().Liveness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadiness_AllHealthy(t *testing.T) {
	ok := func(context.Context) error { return nil }
	h := NewHealthDependenciesHandler(map[string]Check{"mongodb": ok, "redis": ok})

	rec, resp := serve(t, h.Readiness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Dependencies["redis"].Status)
}

func TestReadiness_FailingDependency(t *testing.T) {
	h := NewHealthDependenciesHandler(map[string]Check{
		"mongodb": func(context.Context) error { return nil },
		"redis":   func(context.Context) error { return errors.New("connection refused") },
	})

	rec, resp := serve(t, h.Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Dependencies["redis"].Status)
	assert.Equal(t, "connection refused", resp.Dependencies["redis"].Error)
	assert.Equal(t, "ok", resp.Dependencies["mongodb"].Status)
}

func TestReadiness_MemoryModeSkipsMongo(t *testing.T) {
	h := NewHealthDependenciesHandler(map[string]Check{
		"mongodb": MongoCheck(nil),
		"redis":   func(context.Context) error { return nil },
	})

	rec, resp := serve(t, h.Readiness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disabled", resp.Dependencies["mongodb"].Status)
}
