package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"whisperkit/internal/domain"
)

const identityFilename = "identity.enc"

// FileIdentityStore keeps the long-term identity sealed on disk.
type FileIdentityStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileIdentityStore returns a FileIdentityStore rooted at dir.
func NewFileIdentityStore(dir string) *FileIdentityStore {
	return &FileIdentityStore{dir: dir}
}

// SaveIdentity seals the identity under the passphrase and writes it out.
func (s *FileIdentityStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	blob, err := seal(passphrase, raw)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, identityFilename), blob, 0o600)
}

// LoadIdentity reads and unseals the identity.
func (s *FileIdentityStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(filepath.Join(s.dir, identityFilename))
	if err != nil {
		return domain.Identity{}, err
	}
	raw, err := open(passphrase, blob)
	if err != nil {
		return domain.Identity{}, err
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// Compile-time assertion that FileIdentityStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*FileIdentityStore)(nil)
