package auth

import (
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/storefront-guard/internal/domain"
)

// ErrDecode is returned when a token is not a readable claims container.
var ErrDecode = errors.New("token is not decodable")

// ClaimsDecoder turns a bearer token into claims.
type ClaimsDecoder interface {
	Decode(token string) (*domain.TokenClaims, error)
}

// Decoder reads token claims without checking the signature. Integrity is
// enforced by the API on every privileged call; the claims here only drive
// which views are offered.
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder builds a decoder.
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

type realmAccess struct {
	Roles []string `json:"roles"`
}

// rawClaims is the payload layout issued by the identity provider.
type rawClaims struct {
	RealmAccess       realmAccess `json:"realm_access"`
	PreferredUsername string      `json:"preferred_username,omitempty"`
	Email             string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses the claims segment of token.
func (d *Decoder) Decode(token string) (*domain.TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecode)
	}

	var raw rawClaims
	if _, _, err := d.parser.ParseUnverified(token, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrDecode)
	}

	roles := make(map[domain.Role]struct{}, len(raw.RealmAccess.Roles))
	for _, role := range raw.RealmAccess.Roles {
		roles[domain.Role(role)] = struct{}{}
	}

	return &domain.TokenClaims{
		Subject:   raw.Subject,
		Username:  raw.PreferredUsername,
		Email:     raw.Email,
		ExpiresAt: raw.ExpiresAt.Time,
		Roles:     roles,
	}, nil
}
