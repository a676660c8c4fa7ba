//go:build unit

package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"slot-reservation/internal/handler"
	"slot-reservation/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	t.Run("all dependencies reachable", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", handler.NewHealthHandler(map[string]handler.Pinger{"postgres": up, "redis": up}).Check)

		var body map[string]any
		httptest.AssertSuccessResponse(t, httptest.PerformRequest(t, r, http.MethodGet, "/health", nil), http.StatusOK, &body)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, map[string]any{"postgres": "ok", "redis": "ok"}, body["checks"])
	})

	t.Run("one dependency down degrades", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", handler.NewHealthHandler(map[string]handler.Pinger{"postgres": up, "redis": down, "kafka": nil}).Check)

		rec := httptest.PerformRequest(t, r, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok, "checks missing: %s", rec.Body.String())
		assert.Equal(t, "dial tcp: connection refused", checks["redis"])
		assert.NotContains(t, checks, "kafka")
	})
}
