package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/domain"
	"github.com/spec-kit/storefront-guard/internal/events"
	"github.com/spec-kit/storefront-guard/internal/observability"
	"github.com/spec-kit/storefront-guard/internal/session"
)

const (
	visitorKey = "auth_visitor"
	claimsKey  = "auth_claims"
)

// RouteGuard runs the guard in front of storefront views.
type RouteGuard struct {
	guard      *Guard
	stores     *session.Factory
	events     events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cookieName string
	secure     bool
}

// RouteGuardDependencies bundles RouteGuard collaborators.
type RouteGuardDependencies struct {
	Guard        *Guard
	Stores       *session.Factory
	Events       events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	CookieName   string
	SecureCookie bool
}

// NewRouteGuard constructs middleware.
func NewRouteGuard(deps RouteGuardDependencies) *RouteGuard {
	rg := &RouteGuard{
		guard:      deps.Guard,
		stores:     deps.Stores,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		cookieName: deps.CookieName,
		secure:     deps.SecureCookie,
	}
	if rg.events == nil {
		rg.events = events.Nop{}
	}
	if rg.logger == nil {
		rg.logger = zap.NewNop()
	}
	if rg.cookieName == "" {
		rg.cookieName = "visitor_id"
	}
	return rg
}

// Visitor identifies the browser with a long-lived cookie, issuing one when absent.
func (rg *RouteGuard) Visitor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(rg.cookieName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     rg.cookieName,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().AddDate(1, 0, 0),
				HTTPOnly: true,
				Secure:   rg.secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(visitorKey, id)
		return c.Next()
	}
}

// Protect renders the next handler only for visitors holding any of roles.
// With no roles, any authenticated visitor is admitted.
func (rg *RouteGuard) Protect(roles ...domain.Role) fiber.Handler {
	req := AnyOf(roles...)
	return func(c *fiber.Ctx) error {
		verdict := rg.evaluate(c, req)
		if !verdict.Allowed() {
			return c.Redirect(verdict.Target, fiber.StatusSeeOther)
		}
		c.Locals(claimsKey, verdict.Claims)
		return c.Next()
	}
}

// Landing sends the visitor to their role home, or to login without a session.
func (rg *RouteGuard) Landing() fiber.Handler {
	req := Landing()
	return func(c *fiber.Ctx) error {
		verdict := rg.evaluate(c, req)
		return c.Redirect(verdict.Target, fiber.StatusSeeOther)
	}
}

func (rg *RouteGuard) evaluate(c *fiber.Ctx, req Requirement) Verdict {
	visitorID, _ := VisitorIDFromContext(c)
	store := rg.stores.ForVisitor(visitorID)
	verdict := rg.guard.Evaluate(c.UserContext(), store, req)

	rg.metrics.RecordGuard(string(verdict.State))
	rg.logger.Debug("guard evaluated",
		zap.String("visitor_id", visitorID),
		zap.String("path", c.Path()),
		zap.String("state", string(verdict.State)),
		zap.String("decision", verdict.Decision.Kind.String()),
		zap.String("target", verdict.Target),
	)
	rg.publish(c, visitorID, req, verdict)
	return verdict
}

func (rg *RouteGuard) publish(c *fiber.Ctx, visitorID string, req Requirement, verdict Verdict) {
	event := events.Event{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		Path:      c.Path(),
		Timestamp: time.Now().UTC(),
	}
	if verdict.Claims != nil {
		event.Subject = verdict.Claims.Subject
	}

	publish := func(e events.Event) {
		if err := rg.events.Publish(c.UserContext(), e); err != nil {
			rg.logger.Warn("event handler failed", zap.String("event", string(e.Type)), zap.Error(err))
		}
	}

	switch verdict.State {
	case StateMalformed, StateExpired:
		cleared := event
		cleared.ID = uuid.NewString()
		cleared.Type = events.EventSessionCleared
		cleared.Payload = events.SessionClearedPayload{Reason: string(verdict.State)}
		publish(cleared)
	}

	if verdict.Allowed() {
		event.Type = events.EventAccessGranted
	} else if verdict.Decision.Kind == ToRoleHome {
		// landing redirects are routing, not denials
		return
	} else {
		event.Type = events.EventAccessDenied
		event.Payload = events.AccessDeniedPayload{
			State:    string(verdict.State),
			Target:   verdict.Target,
			Required: req.Roles(),
		}
	}
	publish(event)
}

// VisitorIDFromContext returns the visitor set by Visitor.
func VisitorIDFromContext(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(visitorKey).(string)
	return id, ok && id != ""
}

// ClaimsFromContext returns the claims of an admitted visitor.
func ClaimsFromContext(c *fiber.Ctx) (*domain.TokenClaims, bool) {
	claims, ok := c.Locals(claimsKey).(*domain.TokenClaims)
	return claims, ok && claims != nil
}
