package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-guard/internal/auth"
	"github.com/spec-kit/storefront-guard/internal/events"
	"github.com/spec-kit/storefront-guard/internal/session"
	apperrors "github.com/spec-kit/storefront-guard/pkg/util"
)

// PagesHandler renders storefront views as JSON page descriptors.
type PagesHandler struct {
	activity *session.ActivityLog
}

// NewPagesHandler returns a new handler instance.
func NewPagesHandler(activity *session.ActivityLog) *PagesHandler {
	return &PagesHandler{activity: activity}
}

func page(c *fiber.Ctx, name string, data fiber.Map) error {
	return c.JSON(fiber.Map{"page": name, "data": data})
}

// Home handles GET /.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	return page(c, "home", fiber.Map{
		"featured":     filterProducts(func(p Product) bool { return p.Featured }),
		"new_arrivals": filterProducts(func(p Product) bool { return p.New }),
	})
}

// Contact handles GET /contact.
func (h *PagesHandler) Contact(c *fiber.Ctx) error {
	return page(c, "contact", fiber.Map{
		"email": "support@storefront.example",
		"hours": "Mon-Fri 09:00-18:00",
	})
}

// Login handles GET /login.
func (h *PagesHandler) Login(c *fiber.Ctx) error {
	data := fiber.Map{}
	if reason := c.Query("reason"); reason == auth.ReasonExpired {
		data["notice"] = "Your session has expired. Please sign in again."
	}
	return page(c, "login", data)
}

// Unauthorized handles GET /unauthorized.
func (h *PagesHandler) Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"page": "unauthorized",
		"data": fiber.Map{"message": "You do not have access to this page."},
	})
}

// Profile handles GET /dashboard/profile.
func (h *PagesHandler) Profile(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no active session")
	}
	return page(c, "profile", fiber.Map{
		"subject":  claims.Subject,
		"username": claims.Username,
		"email":    claims.Email,
	})
}

// Dashboard handles GET /dashboard.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no active session")
	}
	return page(c, "dashboard", fiber.Map{
		"username": claims.Username,
		"sections": []string{"profile", "security", "notifications", "settings", "activity"},
	})
}

// Security handles GET /dashboard/security.
func (h *PagesHandler) Security(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no active session")
	}
	return page(c, "security", fiber.Map{"session_expires_at": claims.ExpiresAt.UTC()})
}

// Settings handles GET /dashboard/settings.
func (h *PagesHandler) Settings(c *fiber.Ctx) error {
	return page(c, "settings", fiber.Map{"themes": []string{"light", "dark"}})
}

// Notifications handles GET /dashboard/notifications. Notifications are the
// denials and sign-outs from the activity log.
func (h *PagesHandler) Notifications(c *fiber.Ctx) error {
	visitorID, _ := auth.VisitorIDFromContext(c)
	entries, err := h.activity.Recent(c.UserContext(), visitorID, "")
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	notices := make([]session.ActivityEntry, 0, len(entries))
	for _, e := range entries {
		if e.Type == string(events.EventAccessDenied) || e.Type == string(events.EventSessionCleared) {
			notices = append(notices, e)
		}
	}
	return page(c, "notifications", fiber.Map{"items": notices})
}

// Activity handles GET /dashboard/activity?type=.
func (h *PagesHandler) Activity(c *fiber.Ctx) error {
	visitorID, _ := auth.VisitorIDFromContext(c)
	entries, err := h.activity.Recent(c.UserContext(), visitorID, c.Query("type"))
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return page(c, "activity", fiber.Map{"items": entries})
}

// Admin handles GET /admin.
func (h *PagesHandler) Admin(c *fiber.Ctx) error {
	return page(c, "admin", fiber.Map{"catalog": catalog})
}
