package store

import (
	"path/filepath"
	"sync"

	"whisperkit/internal/domain"
)

const bundleFilename = "bundle_cache.json"

// FileBundleStore caches pre-key bundles on disk: our own last-registered
// bundle and bundles fetched for peers.
type FileBundleStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileBundleStore returns a FileBundleStore rooted at dir.
func NewFileBundleStore(dir string) *FileBundleStore {
	return &FileBundleStore{dir: dir}
}

// SavePreKeyBundle caches a bundle keyed by its username.
func (s *FileBundleStore) SavePreKeyBundle(b domain.PreKeyBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, bundleFilename)
	m := map[domain.Username]domain.PreKeyBundle{}
	_ = readJSON(path, &m)
	m[b.Username] = b
	return writeJSON(path, m, 0o600)
}

// LoadPreKeyBundle retrieves a cached bundle.
func (s *FileBundleStore) LoadPreKeyBundle(username domain.Username) (domain.PreKeyBundle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, bundleFilename)
	m := map[domain.Username]domain.PreKeyBundle{}
	if err := readJSON(path, &m); err != nil {
		return domain.PreKeyBundle{}, false, err
	}
	b, ok := m[username]
	return b, ok, nil
}

// Compile-time assertion that FileBundleStore implements domain.PreKeyBundleStore.
var _ domain.PreKeyBundleStore = (*FileBundleStore)(nil)
