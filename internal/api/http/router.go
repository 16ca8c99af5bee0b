package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-guard/internal/api/http/handlers"
	"github.com/spec-kit/storefront-guard/internal/auth"
	"github.com/spec-kit/storefront-guard/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Pages   *handlers.PagesHandler
	Session *handlers.SessionHandler
	Guard   *auth.RouteGuard
	// Paths must match the targets the guard redirects to.
	Paths auth.Routes
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	site := app.Group("", cfg.Guard.Visitor())
	site.Get("/", cfg.Pages.Home)
	site.Get("/contact", cfg.Pages.Contact)
	site.Get(cfg.Paths.Login, cfg.Pages.Login)
	site.Get(cfg.Paths.Unauthorized, cfg.Pages.Unauthorized)
	site.Get("/home", cfg.Guard.Landing())

	dashboard := site.Group(cfg.Paths.Dashboard, cfg.Guard.Protect())
	dashboard.Get("/", cfg.Pages.Dashboard)
	dashboard.Get("/profile", cfg.Pages.Profile)
	dashboard.Get("/security", cfg.Pages.Security)
	dashboard.Get("/notifications", cfg.Pages.Notifications)
	dashboard.Get("/settings", cfg.Pages.Settings)
	dashboard.Get("/activity", cfg.Pages.Activity)

	if adminPath, ok := cfg.Paths.HomeFor(domain.RoleAdmin); ok && adminPath != cfg.Paths.Dashboard {
		site.Get(adminPath, cfg.Guard.Protect(domain.RoleAdmin), cfg.Pages.Admin)
	}

	api := site.Group("/api")
	api.Post("/session", cfg.Session.Save)
	api.Get("/session", cfg.Session.Get)
	api.Delete("/session", cfg.Session.Delete)
}
