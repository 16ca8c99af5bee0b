package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/domain"
)

// TokenStore reads and writes the persisted session of a single visitor.
type TokenStore interface {
	// Load returns the persisted record, or false when nothing usable is stored.
	Load(ctx context.Context) (*domain.SessionRecord, bool)
	Save(ctx context.Context, record domain.SessionRecord) error
	Clear(ctx context.Context) error
}

// Keys names the storage slots inside a visitor namespace.
type Keys struct {
	Prefix string
	Record string
	Legacy string
}

// DefaultKeys matches the storefront's historical layout.
var DefaultKeys = Keys{Prefix: "storefront", Record: "authData", Legacy: "token"}

// Factory binds stores to visitors over a shared KV.
type Factory struct {
	kv     KV
	keys   Keys
	ttl    time.Duration
	logger *zap.Logger
}

// NewFactory builds a Factory. A zero ttl keeps records until cleared.
func NewFactory(kv KV, keys Keys, ttl time.Duration, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{kv: kv, keys: keys, ttl: ttl, logger: logger}
}

// ForVisitor returns the store scoped to visitorID.
func (f *Factory) ForVisitor(visitorID string) *Store {
	return &Store{
		kv:        f.kv,
		ttl:       f.ttl,
		recordKey: f.key(visitorID, f.keys.Record),
		legacyKey: f.key(visitorID, f.keys.Legacy),
		logger:    f.logger.With(zap.String("visitor_id", visitorID)),
	}
}

// ActivityKey names the visitor's activity list.
func (f *Factory) ActivityKey(visitorID string) string {
	return f.key(visitorID, "activity")
}

// KV exposes the underlying medium.
func (f *Factory) KV() KV {
	return f.kv
}

func (f *Factory) key(visitorID, name string) string {
	return f.keys.Prefix + ":" + visitorID + ":" + name
}

// Store is a TokenStore over a KV.
type Store struct {
	kv        KV
	ttl       time.Duration
	recordKey string
	legacyKey string
	logger    *zap.Logger
}

// Load checks the structured key first and falls back to the legacy plain key
// when the structured key is missing or unreadable. An unreadable structured
// value is removed. Read failures are reported as absence.
func (s *Store) Load(ctx context.Context) (*domain.SessionRecord, bool) {
	raw, err := s.kv.Get(ctx, s.recordKey)
	switch {
	case err == nil:
		if record, ok := s.parseRecord(raw); ok {
			return record, true
		}
		if err := s.kv.Delete(ctx, s.recordKey); err != nil {
			s.logger.Warn("drop unreadable session failed", zap.String("key", s.recordKey), zap.Error(err))
			return nil, false
		}
	case !errors.Is(err, ErrNotFound):
		s.logger.Warn("session read failed", zap.String("key", s.recordKey), zap.Error(err))
		return nil, false
	}

	legacy, err := s.kv.Get(ctx, s.legacyKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("session read failed", zap.String("key", s.legacyKey), zap.Error(err))
		}
		return nil, false
	}
	token := strings.TrimSpace(legacy)
	if token == "" {
		return nil, false
	}
	return &domain.SessionRecord{AccessToken: token}, true
}

func (s *Store) parseRecord(raw string) (*domain.SessionRecord, bool) {
	var record domain.SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.logger.Debug("stored session is not a record", zap.Error(err))
		return nil, false
	}
	if record.AccessToken == "" {
		s.logger.Debug("stored session has no access token")
		return nil, false
	}
	return &record, true
}

// Save overwrites any previous record and drops the legacy value.
func (s *Store) Save(ctx context.Context, record domain.SessionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.recordKey, string(payload), s.ttl); err != nil {
		return err
	}
	return s.kv.Delete(ctx, s.legacyKey)
}

// Clear removes both keys. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.recordKey, s.legacyKey)
}
