package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/api/dto"
	"github.com/spec-kit/storefront-guard/internal/auth"
	"github.com/spec-kit/storefront-guard/internal/domain"
	"github.com/spec-kit/storefront-guard/internal/events"
	"github.com/spec-kit/storefront-guard/internal/session"
	apperrors "github.com/spec-kit/storefront-guard/pkg/util"
)

// SessionHandler exposes the visitor session API.
type SessionHandler struct {
	guard   *auth.Guard
	decoder auth.ClaimsDecoder
	stores  *session.Factory
	events  events.Dispatcher
	now     func() time.Time
	logger  *zap.Logger
}

// SessionDependencies bundles SessionHandler collaborators.
type SessionDependencies struct {
	Guard   *auth.Guard
	Decoder auth.ClaimsDecoder
	Stores  *session.Factory
	Events  events.Dispatcher
	Clock   func() time.Time
	Logger  *zap.Logger
}

// NewSessionHandler constructs handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	h := &SessionHandler{
		guard:   deps.Guard,
		decoder: deps.Decoder,
		stores:  deps.Stores,
		events:  deps.Events,
		now:     deps.Clock,
		logger:  deps.Logger,
	}
	if h.decoder == nil {
		h.decoder = auth.NewDecoder()
	}
	if h.events == nil {
		h.events = events.Nop{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Save handles POST /api/session.
func (h *SessionHandler) Save(c *fiber.Ctx) error {
	var req dto.SessionSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AccessToken == "" {
		return apperrors.NewValidationError("accessToken required", map[string]any{"field": "accessToken"})
	}

	claims, err := h.decoder.Decode(req.AccessToken)
	if err != nil {
		return apperrors.NewValidationError("accessToken is not a readable token", map[string]any{"field": "accessToken"})
	}
	if claims.ExpiredAt(h.now()) {
		return apperrors.NewValidationError("accessToken has expired", map[string]any{"expires_at": claims.ExpiresAt})
	}

	visitorID, _ := auth.VisitorIDFromContext(c)
	record := domain.SessionRecord{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		User:         req.User,
	}
	if err := h.stores.ForVisitor(visitorID).Save(c.UserContext(), record); err != nil {
		return apperrors.NewInternalError(err)
	}

	h.publish(c, events.Event{Type: events.EventSessionSaved, VisitorID: visitorID, Subject: claims.Subject})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.describe(claims)})
}

// Get handles GET /api/session.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	visitorID, _ := auth.VisitorIDFromContext(c)
	verdict := h.guard.Evaluate(c.UserContext(), h.stores.ForVisitor(visitorID), auth.AnyOf())
	if !verdict.Allowed() {
		return apperrors.NewDomainError("UNAUTHORIZED", "no active session", http.StatusUnauthorized,
			map[string]any{"state": string(verdict.State), "redirect": verdict.Target})
	}
	return c.JSON(fiber.Map{"data": h.describe(verdict.Claims)})
}

// Delete handles DELETE /api/session (logout).
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	visitorID, _ := auth.VisitorIDFromContext(c)
	if err := h.stores.ForVisitor(visitorID).Clear(c.UserContext()); err != nil {
		return apperrors.NewInternalError(err)
	}
	h.publish(c, events.Event{
		Type:      events.EventSessionCleared,
		VisitorID: visitorID,
		Payload:   events.SessionClearedPayload{Reason: "logout"},
	})
	return c.SendStatus(http.StatusNoContent)
}

func (h *SessionHandler) describe(claims *domain.TokenClaims) dto.SessionResponse {
	roles := make([]string, 0, len(claims.Roles))
	for _, role := range claims.RoleList() {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	routes := h.guard.Routes()
	return dto.SessionResponse{
		Subject:   claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		Roles:     roles,
		ExpiresAt: claims.ExpiresAt.UTC(),
		Home:      routes.Target(auth.Decide(claims, auth.Landing(), routes.Homes)),
	}
}

func (h *SessionHandler) publish(c *fiber.Ctx, e events.Event) {
	e.ID = uuid.NewString()
	e.Path = c.Path()
	e.Timestamp = time.Now().UTC()
	if err := h.events.Publish(c.UserContext(), e); err != nil {
		h.logger.Warn("event handler failed", zap.String("event", string(e.Type)), zap.Error(err))
	}
}
