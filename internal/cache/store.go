// Package cache implements the time-bounded query cache shared by every
// domain repository: a key-value store with per-entry timestamps, prefix
// eviction, and a persisted blob in a storage region.
package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/storage"
)

// BlobKey is the storage key the serialized cache lives under.
const BlobKey = "appDataCache"

// DefaultTTL is the validity window applied when a read does not override it.
const DefaultTTL = 5 * time.Minute

type entry struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt int64           `json:"storedAt"` // unix milliseconds
}

// Store is the TTL cache. The in-memory map is authoritative; the storage
// region only provides best-effort durability across restarts. Expired
// entries are treated as absent on read and physically purged on the next
// persisting write or at hydration.
type Store struct {
	region     storage.Store
	defaultTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	// persistLost marks that a write to the region failed twice; further
	// persistence is skipped for the rest of the session.
	persistLost bool
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the default entry TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.defaultTTL = ttl }
}

// WithClock injects the time source. Tests use this to cross TTL boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore hydrates a cache from the given storage region. A corrupt blob is
// dropped and the cache starts empty; entries already expired against the
// default TTL are cleaned during hydration.
func NewStore(region storage.Store, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		region:     region,
		defaultTTL: DefaultTTL,
		log:        log.With().Str("component", "cache").Logger(),
		now:        time.Now,
		entries:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	raw, ok := s.region.Get(BlobKey)
	if !ok {
		return
	}

	if err := json.Unmarshal([]byte(raw), &s.entries); err != nil {
		s.log.Warn().Err(err).Msg("Cache blob corrupt, dropping")
		s.entries = make(map[string]entry)
		s.region.Remove(BlobKey)
		return
	}

	// Clean entries already past the default TTL.
	nowMS := s.now().UnixMilli()
	removed := 0
	for key, ent := range s.entries {
		if nowMS-ent.StoredAt > s.defaultTTL.Milliseconds() {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		s.persist()
	}
}

// Get returns the payload stored under key if it is still valid against the
// default TTL. Reads never mutate the store.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	return s.GetWithTTL(key, s.defaultTTL)
}

// GetWithTTL is Get with a per-read validity override.
func (s *Store) GetWithTTL(key string, ttl time.Duration) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().UnixMilli()-ent.StoredAt >= ttl.Milliseconds() {
		return nil, false
	}
	return ent.Payload, true
}

// Has reports whether a valid entry exists under key.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores payload under key with the current timestamp and re-serializes
// the whole store to the backing region.
func (s *Store) Set(key string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Cache payload not serializable, skipping")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{Payload: raw, StoredAt: s.now().UnixMilli()}
	s.persist()
}

// Remove deletes one entry. Persistence runs only when a deletion occurred.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	s.persist()
}

// ClearByPrefix deletes every entry whose key starts with prefix, with a
// single persistence write for the whole batch.
func (s *Store) ClearByPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		s.persist()
	}
}

// Clear empties the store and removes the persisted blob.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]entry)
	s.region.Remove(BlobKey)
	s.persistLost = false
}

// Len reports the number of entries, valid or expired.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// persist re-serializes all entries into the region. On failure the blob is
// cleared once and the write retried; a second failure degrades the cache to
// memory-only for the remainder of the session. The caller must hold s.mu.
func (s *Store) persist() {
	if s.persistLost {
		return
	}

	raw, err := json.Marshal(s.entries)
	if err != nil {
		s.log.Error().Err(err).Msg("Cache not serializable, persistence skipped")
		return
	}

	err = s.region.Set(BlobKey, string(raw))
	if err == nil {
		return
	}
	s.log.Warn().Err(err).Msg("Cache persist failed, clearing blob and retrying")

	s.region.Remove(BlobKey)
	if err := s.region.Set(BlobKey, string(raw)); err != nil {
		s.log.Warn().Err(err).Msg("Cache persist retry failed, degrading to memory-only")
		s.persistLost = true
	}
}
