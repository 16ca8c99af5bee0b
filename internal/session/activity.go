package session

import (
	"context"
	"encoding/json"
	"time"
)

// ActivityEntry is one line of a visitor's activity log.
type ActivityEntry struct {
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityLog keeps a bounded, newest-first history per visitor.
type ActivityLog struct {
	factory *Factory
	max     int
}

// NewActivityLog stores up to max entries per visitor.
func NewActivityLog(factory *Factory, max int) *ActivityLog {
	if max <= 0 {
		max = 50
	}
	return &ActivityLog{factory: factory, max: max}
}

// Record appends an entry for visitorID.
func (a *ActivityLog) Record(ctx context.Context, visitorID string, entry ActivityEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return a.factory.KV().Append(ctx, a.factory.ActivityKey(visitorID), string(payload), a.max)
}

// Recent returns the visitor's entries newest first, optionally filtered by type.
// Entries that no longer decode are skipped.
func (a *ActivityLog) Recent(ctx context.Context, visitorID, entryType string) ([]ActivityEntry, error) {
	raw, err := a.factory.KV().List(ctx, a.factory.ActivityKey(visitorID))
	if err != nil {
		return nil, err
	}
	out := make([]ActivityEntry, 0, len(raw))
	for _, item := range raw {
		var entry ActivityEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		if entryType != "" && entry.Type != entryType {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
