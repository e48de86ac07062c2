package storage

import "sync"

// MemoryStore is an in-process Store. It is the default backing for the
// session region: contents last for the process lifetime only.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string

	// MaxValueBytes, when positive, rejects oversized writes with
	// ErrQuotaExceeded. Zero means unlimited.
	MaxValueBytes int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	if s.MaxValueBytes > 0 && len(value) > s.MaxValueBytes {
		return ErrQuotaExceeded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}
