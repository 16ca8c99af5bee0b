package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/observability"
	apperrors "github.com/spec-kit/storefront-guard/pkg/util"
)

func errorBody(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()
	res, err := app.Test(httptest.NewRequest(nethttp.MethodGet, path, nil))
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out["error"]
}

func TestErrorHandlingAdvertisesLogin(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, MiddlewareOptions{LoginPath: "/signin"})
	app.Get("/anon", func(c *fiber.Ctx) error {
		return apperrors.NewUnauthorized("no active session")
	})
	app.Get("/explicit", func(c *fiber.Ctx) error {
		return apperrors.NewDomainError("UNAUTHORIZED", "no active session", fiber.StatusUnauthorized,
			map[string]any{"redirect": "/login?reason=expired"})
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return apperrors.NewValidationError("bad", nil)
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	status, body := errorBody(t, app, "/anon")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "/signin", body["details"].(map[string]any)["redirect"])

	_, body = errorBody(t, app, "/explicit")
	assert.Equal(t, "/login?reason=expired", body["details"].(map[string]any)["redirect"])

	status, body = errorBody(t, app, "/bad")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotContains(t, body, "details")

	status, body = errorBody(t, app, "/panic")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])

	assert.Equal(t, int64(1), metrics.Snapshot().Errors["/anon|GET|UNAUTHORIZED"])
}
