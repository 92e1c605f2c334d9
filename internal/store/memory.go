package store

import (
	"sync"

	"whisperkit/internal/domain"
)

// MemorySessionStore keeps session records in memory. Used by tests and by
// short-lived tools that should not write ratchet state to disk.
type MemorySessionStore struct {
	mu      sync.Mutex
	records map[domain.Username][]byte
}

// NewMemorySessionStore returns an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{records: make(map[domain.Username][]byte)}
}

func (s *MemorySessionStore) SaveSessionRecord(peer domain.Username, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[peer] = append([]byte(nil), blob...)
	return nil
}

func (s *MemorySessionStore) LoadSessionRecord(peer domain.Username) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.records[peer]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

func (s *MemorySessionStore) DeleteSessionRecord(peer domain.Username) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, peer)
	return nil
}

// Compile-time assertion that MemorySessionStore implements domain.SessionStore.
var _ domain.SessionStore = (*MemorySessionStore)(nil)
