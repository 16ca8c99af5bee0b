package auth

import (
	"net/url"

	"github.com/spec-kit/storefront-guard/internal/domain"
)

// DecisionKind tags the outcome of a routing decision.
type DecisionKind int

const (
	Allow DecisionKind = iota
	ToLogin
	ToUnauthorized
	ToRoleHome
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case ToLogin:
		return "to_login"
	case ToUnauthorized:
		return "to_unauthorized"
	case ToRoleHome:
		return "to_role_home"
	default:
		return "unknown"
	}
}

// ReasonExpired tags login redirects caused by an expired token.
const ReasonExpired = "expired"

// Decision is where a navigation ends up. Role is set for ToRoleHome and is
// empty when the visitor holds none of the configured home roles.
type Decision struct {
	Kind   DecisionKind
	Role   domain.Role
	Reason string
}

// Requirement describes what a navigation asks for.
type Requirement struct {
	roles   []domain.Role
	landing bool
}

// AnyOf admits visitors holding at least one of roles. No roles admits any
// authenticated visitor.
func AnyOf(roles ...domain.Role) Requirement {
	return Requirement{roles: roles}
}

// Landing asks for the visitor's role home instead of a specific view.
func Landing() Requirement {
	return Requirement{landing: true}
}

// Roles returns the required roles.
func (r Requirement) Roles() []domain.Role {
	return r.roles
}

// IsLanding reports whether the requirement is a generic home redirect.
func (r Requirement) IsLanding() bool {
	return r.landing
}

// RoleHome maps a role to its landing path.
type RoleHome struct {
	Role domain.Role
	Path string
}

// Decide is the single routing decision shared by every caller. Claims must
// already be checked for expiry; nil claims mean no usable session.
func Decide(claims *domain.TokenClaims, req Requirement, homes []RoleHome) Decision {
	if claims == nil {
		return Decision{Kind: ToLogin}
	}
	if req.landing {
		for _, home := range homes {
			if claims.HasRole(home.Role) {
				return Decision{Kind: ToRoleHome, Role: home.Role}
			}
		}
		return Decision{Kind: ToRoleHome}
	}
	if len(req.roles) == 0 || claims.HasAnyRole(req.roles) {
		return Decision{Kind: Allow}
	}
	return Decision{Kind: ToUnauthorized}
}

// Routes holds the redirect targets.
type Routes struct {
	Login        string
	Unauthorized string
	Dashboard    string
	Homes        []RoleHome
}

// HomeFor returns the landing path configured for role.
func (r Routes) HomeFor(role domain.Role) (string, bool) {
	for _, home := range r.Homes {
		if home.Role == role {
			return home.Path, true
		}
	}
	return "", false
}

// Target resolves the redirect location for d. Allow has no target.
func (r Routes) Target(d Decision) string {
	switch d.Kind {
	case ToLogin:
		if d.Reason == "" {
			return r.Login
		}
		return r.Login + "?" + url.Values{"reason": {d.Reason}}.Encode()
	case ToUnauthorized:
		return r.Unauthorized
	case ToRoleHome:
		if path, ok := r.HomeFor(d.Role); ok {
			return path
		}
		return r.Dashboard
	default:
		return ""
	}
}
