package events

import (
	"time"

	"github.com/spec-kit/storefront-guard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionSaved   EventType = "session_saved"
	EventSessionCleared EventType = "session_cleared"
	EventAccessGranted  EventType = "access_granted"
	EventAccessDenied   EventType = "access_denied"
)

// Event represents a session lifecycle event emitted by the guard and the session API.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	VisitorID string      `json:"visitor_id"`
	Subject   string      `json:"subject,omitempty"`
	Path      string      `json:"path,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionClearedPayload explains why a stored session was removed.
type SessionClearedPayload struct {
	Reason string `json:"reason"`
}

// AccessDeniedPayload describes a redirect issued by the guard.
type AccessDeniedPayload struct {
	State    string        `json:"state"`
	Target   string        `json:"target"`
	Required []domain.Role `json:"required,omitempty"`
}
