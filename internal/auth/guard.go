package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/domain"
	"github.com/spec-kit/storefront-guard/internal/session"
)

// State is the guard state reached for one navigation.
type State string

const (
	StateNoSession        State = "no_session"
	StateMalformed        State = "malformed"
	StateExpired          State = "expired"
	StateInsufficientRole State = "insufficient_role"
	StateAuthorized       State = "authorized"
)

// Verdict is the result of a single guard evaluation.
type Verdict struct {
	State    State
	Decision Decision
	Claims   *domain.TokenClaims
	// Target is the redirect location; empty when the view may render.
	Target string
}

// Allowed reports whether the guarded view may render.
func (v Verdict) Allowed() bool {
	return v.Decision.Kind == Allow
}

// GuardDependencies carries optional collaborators for the guard.
type GuardDependencies struct {
	Decoder ClaimsDecoder
	Clock   func() time.Time
	Logger  *zap.Logger
}

// Guard decides whether a visitor may see a view.
type Guard struct {
	decoder ClaimsDecoder
	now     func() time.Time
	routes  Routes
	logger  *zap.Logger
}

// NewGuard builds a guard. Missing dependencies fall back to the
// unverified JWT decoder, the wall clock and a no-op logger.
func NewGuard(routes Routes, deps GuardDependencies) *Guard {
	g := &Guard{
		decoder: deps.Decoder,
		now:     deps.Clock,
		routes:  routes,
		logger:  deps.Logger,
	}
	if g.decoder == nil {
		g.decoder = NewDecoder()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Routes returns the configured redirect targets.
func (g *Guard) Routes() Routes {
	return g.routes
}

// Evaluate reads the store afresh and resolves the navigation. Malformed and
// expired sessions are cleared; a missing one is left alone.
func (g *Guard) Evaluate(ctx context.Context, store session.TokenStore, req Requirement) Verdict {
	record, ok := store.Load(ctx)
	if !ok {
		return g.verdict(StateNoSession, Decision{Kind: ToLogin}, nil)
	}

	claims, err := g.decoder.Decode(record.AccessToken)
	if err != nil {
		g.logger.Debug("discarding undecodable session", zap.Error(err))
		g.clear(ctx, store)
		return g.verdict(StateMalformed, Decision{Kind: ToLogin}, nil)
	}

	if claims.ExpiredAt(g.now()) {
		g.logger.Debug("discarding expired session", zap.Time("expired_at", claims.ExpiresAt))
		g.clear(ctx, store)
		return g.verdict(StateExpired, Decision{Kind: ToLogin, Reason: ReasonExpired}, nil)
	}

	decision := Decide(claims, req, g.routes.Homes)
	if decision.Kind == ToUnauthorized {
		return g.verdict(StateInsufficientRole, decision, claims)
	}
	return g.verdict(StateAuthorized, decision, claims)
}

func (g *Guard) verdict(state State, decision Decision, claims *domain.TokenClaims) Verdict {
	return Verdict{
		State:    state,
		Decision: decision,
		Claims:   claims,
		Target:   g.routes.Target(decision),
	}
}

func (g *Guard) clear(ctx context.Context, store session.TokenStore) {
	if err := store.Clear(ctx); err != nil {
		g.logger.Warn("failed to clear session", zap.Error(err))
	}
}
