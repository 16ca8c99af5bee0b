package domain

import (
	"encoding/json"
	"time"
)

// Role is a realm role granted by the identity provider.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// SessionRecord is the persisted result of a login. Only AccessToken is required.
type SessionRecord struct {
	AccessToken  string                     `json:"accessToken"`
	RefreshToken string                     `json:"refreshToken,omitempty"`
	User         json.RawMessage            `json:"user,omitempty"`
	Extra        map[string]json.RawMessage `json:"-"`
}

// sessionRecordFields mirrors SessionRecord without the custom marshalling.
type sessionRecordFields struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

var knownRecordFields = map[string]struct{}{
	"accessToken":  {},
	"refreshToken": {},
	"user":         {},
}

// UnmarshalJSON keeps unknown fields in Extra so a save round-trip does not drop them.
func (r *SessionRecord) UnmarshalJSON(data []byte) error {
	var fields sessionRecordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	r.AccessToken = fields.AccessToken
	r.RefreshToken = fields.RefreshToken
	r.User = fields.User
	r.Extra = nil
	for key, val := range all {
		if _, known := knownRecordFields[key]; known {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[key] = val
	}
	return nil
}

// MarshalJSON writes the known fields plus any extras.
func (r SessionRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+3)
	for key, val := range r.Extra {
		out[key] = val
	}
	token, err := json.Marshal(r.AccessToken)
	if err != nil {
		return nil, err
	}
	out["accessToken"] = token
	if r.RefreshToken != "" {
		refresh, err := json.Marshal(r.RefreshToken)
		if err != nil {
			return nil, err
		}
		out["refreshToken"] = refresh
	}
	if len(r.User) > 0 {
		out["user"] = r.User
	}
	return json.Marshal(out)
}

// TokenClaims is the decoded, unverified content of an access token. Never persisted.
type TokenClaims struct {
	Subject   string
	Username  string
	Email     string
	ExpiresAt time.Time
	Roles     map[Role]struct{}
}

// HasRole reports whether the claims carry the role.
func (c *TokenClaims) HasRole(role Role) bool {
	if c == nil {
		return false
	}
	_, ok := c.Roles[role]
	return ok
}

// HasAnyRole reports whether at least one of roles is held.
func (c *TokenClaims) HasAnyRole(roles []Role) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

// RoleList returns the held roles in no particular order.
func (c *TokenClaims) RoleList() []Role {
	if c == nil {
		return nil
	}
	out := make([]Role, 0, len(c.Roles))
	for role := range c.Roles {
		out = append(out, role)
	}
	return out
}

// ExpiredAt reports whether the token is no longer valid at now. A token is
// valid only while exp is strictly after now.
func (c *TokenClaims) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
