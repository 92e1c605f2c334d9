package store

import (
	"path/filepath"
	"sync"

	"whisperkit/internal/domain"
)

const sessionsFilename = "sessions.json"

// FileSessionStore persists session records to disk as opaque blobs keyed
// by peer.
type FileSessionStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileSessionStore returns a FileSessionStore rooted at dir.
func NewFileSessionStore(dir string) *FileSessionStore {
	return &FileSessionStore{dir: dir}
}

// SaveSessionRecord writes the record for peer.
func (s *FileSessionStore) SaveSessionRecord(peer domain.Username, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFilename)
	m := map[domain.Username][]byte{}
	_ = readJSON(path, &m)
	m[peer] = blob
	return writeJSON(path, m, 0o600)
}

// LoadSessionRecord retrieves the record for peer.
func (s *FileSessionStore) LoadSessionRecord(peer domain.Username) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFilename)
	m := map[domain.Username][]byte{}
	if err := readJSON(path, &m); err != nil {
		return nil, false, err
	}
	blob, ok := m[peer]
	return blob, ok, nil
}

// DeleteSessionRecord removes the record for peer. Deleting a session that
// does not exist is not an error.
func (s *FileSessionStore) DeleteSessionRecord(peer domain.Username) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFilename)
	m := map[domain.Username][]byte{}
	if err := readJSON(path, &m); err != nil {
		return err
	}
	if _, ok := m[peer]; !ok {
		return nil
	}
	delete(m, peer)
	return writeJSON(path, m, 0o600)
}

// Compile-time assertion that FileSessionStore implements domain.SessionStore.
var _ domain.SessionStore = (*FileSessionStore)(nil)
