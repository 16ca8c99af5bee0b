package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-guard/internal/auth"
	"github.com/spec-kit/storefront-guard/internal/domain"
	"github.com/spec-kit/storefront-guard/internal/events"
	"github.com/spec-kit/storefront-guard/internal/observability"
	"github.com/spec-kit/storefront-guard/internal/session"
)

type harness struct {
	app     *fiber.App
	stores  *session.Factory
	metrics *observability.Metrics
	seen    []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		stores:  session.NewFactory(session.NewMemoryKV(), session.DefaultKeys, 0, nil),
		metrics: observability.NewMetrics(),
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventAccessGranted, events.EventAccessDenied, events.EventSessionCleared} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			h.seen = append(h.seen, e)
			return nil
		})
	}

	rg := auth.NewRouteGuard(auth.RouteGuardDependencies{
		Guard:   newGuard(),
		Stores:  h.stores,
		Events:  dispatcher,
		Metrics: h.metrics,
	})

	h.app = fiber.New()
	h.app.Use(rg.Visitor())
	h.app.Get("/home", rg.Landing())
	h.app.Get("/dashboard", rg.Protect(), func(c *fiber.Ctx) error {
		claims, ok := auth.ClaimsFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString("dashboard:" + claims.Subject)
	})
	h.app.Get("/admin", rg.Protect(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("admin")
	})
	return h
}

func (h *harness) do(t *testing.T, path, visitorID string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if visitorID != "" {
		req.AddCookie(&http.Cookie{Name: "visitor_id", Value: visitorID})
	}
	res, err := h.app.Test(req)
	require.NoError(t, err)
	return res
}

func TestRouteGuard_RedirectsAnonymousVisitor(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, "/dashboard", "")

	assert.Equal(t, fiber.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	var issued *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "visitor_id" {
			issued = c
		}
	}
	require.NotNil(t, issued)
	_, err := uuid.Parse(issued.Value)
	assert.NoError(t, err)
	assert.True(t, issued.HttpOnly)
}

func TestRouteGuard_RendersAuthorizedView(t *testing.T) {
	h := newHarness(t)
	visitorID := uuid.NewString()
	saveToken(t, h.stores.ForVisitor(visitorID), mintToken(t, fixedNow.Add(time.Hour), "USER"))

	res := h.do(t, "/dashboard", visitorID)

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Empty(t, res.Header.Get("Location"))
	assert.Empty(t, res.Cookies(), "existing visitor cookie is kept")
	require.Len(t, h.seen, 1)
	assert.Equal(t, events.EventAccessGranted, h.seen[0].Type)
	assert.Equal(t, int64(1), h.metrics.Snapshot().GuardOutcomes["authorized"])
}

func TestRouteGuard_RoleMismatchGoesToUnauthorized(t *testing.T) {
	h := newHarness(t)
	visitorID := uuid.NewString()
	saveToken(t, h.stores.ForVisitor(visitorID), mintToken(t, fixedNow.Add(time.Hour), "USER"))

	res := h.do(t, "/admin", visitorID)

	assert.Equal(t, fiber.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/unauthorized", res.Header.Get("Location"))
	require.Len(t, h.seen, 1)
	assert.Equal(t, events.EventAccessDenied, h.seen[0].Type)
	payload, ok := h.seen[0].Payload.(events.AccessDeniedPayload)
	require.True(t, ok)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, payload.Required)
}

func TestRouteGuard_ExpiredSessionIsCleared(t *testing.T) {
	h := newHarness(t)
	visitorID := uuid.NewString()
	store := h.stores.ForVisitor(visitorID)
	saveToken(t, store, mintToken(t, fixedNow.Add(-time.Minute), "ADMIN"))

	res := h.do(t, "/admin", visitorID)

	assert.Equal(t, fiber.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login?reason=expired", res.Header.Get("Location"))
	_, ok := store.Load(context.Background())
	assert.False(t, ok)

	require.Len(t, h.seen, 2)
	assert.Equal(t, events.EventSessionCleared, h.seen[0].Type)
	assert.Equal(t, events.EventAccessDenied, h.seen[1].Type)
}

func TestRouteGuard_Landing(t *testing.T) {
	h := newHarness(t)

	admin := uuid.NewString()
	saveToken(t, h.stores.ForVisitor(admin), mintToken(t, fixedNow.Add(time.Hour), "ADMIN"))
	user := uuid.NewString()
	saveToken(t, h.stores.ForVisitor(user), mintToken(t, fixedNow.Add(time.Hour), "USER"))

	cases := []struct {
		name    string
		visitor string
		want    string
	}{
		{"admin", admin, "/admin"},
		{"user", user, "/dashboard"},
		{"anonymous", uuid.NewString(), "/login"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := h.do(t, "/home", tc.visitor)
			assert.Equal(t, fiber.StatusSeeOther, res.StatusCode)
			assert.Equal(t, tc.want, res.Header.Get("Location"))
		})
	}
}
