package dto

import (
	"encoding/json"
	"time"
)

// SessionSaveRequest is the login handoff persisted for the visitor.
type SessionSaveRequest struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// SessionResponse describes the current visitor session.
type SessionResponse struct {
	Subject   string    `json:"subject"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
	Home      string    `json:"home"`
}
