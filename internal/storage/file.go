package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// FileStore persists keys as a single JSON document on disk. It backs the
// persistent region (tokens, profile) so a session survives process restarts.
type FileStore struct {
	path string
	log  zerolog.Logger

	mu   sync.Mutex
	data map[string]string
}

// NewFileStore loads (or initializes) the store at path. An unparsable file
// is dropped and replaced with an empty store rather than surfaced.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{
		path: path,
		log:  log.With().Str("component", "file_store").Logger(),
		data: make(map[string]string),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("State file corrupt, starting empty")
		s.data = make(map[string]string)
		_ = os.Remove(path)
	}

	return s, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flushLocked(); err != nil {
		// Roll back the in-memory map so state matches disk.
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.log.Warn().Err(err).Msg("Persist after remove failed")
	}
}

// flushLocked writes the whole document atomically via a temp-file rename.
// The caller must hold s.mu.
func (s *FileStore) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return mapWriteErr(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// mapWriteErr normalizes out-of-space conditions onto ErrQuotaExceeded so
// callers can apply the clear-and-retry recovery.
func mapWriteErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("write state file: %w", err)
}
