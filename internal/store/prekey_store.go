package store

import (
	"path/filepath"
	"sync"

	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/wire"
)

const (
	spkFile    = "signed_prekeys.json" // map[uint32][]byte, serialized records
	opkFile    = "one_time_prekeys.json"
	kemFile    = "kem_prekeys.json"
	prekeyMeta = "prekey_meta.json"
)

type prekeyMetadata struct {
	CurrentSPKID uint32          `json:"current_spk_id"`
	CurrentKEMID uint32          `json:"current_kem_id"`
	LastResort   map[uint32]bool `json:"last_resort_kem"`
}

// FilePreKeyStore persists pre-keys on disk in their canonical record
// serialization, keyed by numeric ID.
type FilePreKeyStore struct {
	dir string
	mu  sync.Mutex
}

// NewFilePreKeyStore returns a FilePreKeyStore rooted at dir.
func NewFilePreKeyStore(dir string) *FilePreKeyStore {
	return &FilePreKeyStore{dir: dir}
}

// ---------- Signed pre-keys ----------

func (s *FilePreKeyStore) SaveSignedPreKey(pair domain.SignedPreKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[uint32][]byte)
	_ = readJSON(filepath.Join(s.dir, spkFile), &m)

	rec := wire.SignedPreKeyRecord{
		ID:        pair.ID,
		KeyPair:   domain.KeyPair{Private: pair.Priv, Public: pair.Pub},
		Signature: pair.Signature,
		Timestamp: pair.CreatedAt,
	}
	m[pair.ID] = rec.Serialize()
	return writeJSON(filepath.Join(s.dir, spkFile), m, 0o600)
}

func (s *FilePreKeyStore) LoadSignedPreKey(id uint32) (domain.SignedPreKeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[uint32][]byte)
	if err := readJSON(filepath.Join(s.dir, spkFile), &m); err != nil {
		return domain.SignedPreKeyPair{}, false, err
	}
	raw, ok := m[id]
	if !ok {
		return domain.SignedPreKeyPair{}, false, nil
	}
	rec, err := wire.ParseSignedPreKeyRecord(raw)
	if err != nil {
		return domain.SignedPreKeyPair{}, false, err
	}
	return domain.SignedPreKeyPair{
		ID:        rec.ID,
		Priv:      rec.KeyPair.Private,
		Pub:       rec.KeyPair.Public,
		Signature: rec.Signature,
		CreatedAt: rec.Timestamp,
	}, true, nil
}

func (s *FilePreKeyStore) SetCurrentSignedPreKeyID(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}
	meta.CurrentSPKID = id
	return writeJSON(filepath.Join(s.dir, prekeyMeta), meta, 0o600)
}

func (s *FilePreKeyStore) CurrentSignedPreKeyID() (uint32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		return 0, false, err
	}
	return meta.CurrentSPKID, meta.CurrentSPKID != 0, nil
}

// ---------- One-time pre-keys ----------

func (s *FilePreKeyStore) SaveOneTimePreKeys(pairs []domain.OneTimePreKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[uint32][]byte)
	_ = readJSON(filepath.Join(s.dir, opkFile), &m)

	for _, p := range pairs {
		rec := wire.PreKeyRecord{
			ID:      p.ID,
			KeyPair: domain.KeyPair{Private: p.Priv, Public: p.Pub},
		}
		m[p.ID] = rec.Serialize()
	}
	return writeJSON(filepath.Join(s.dir, opkFile), m, 0o600)
}

// ConsumeOneTimePreKey removes and returns the pair; a one-time key must
// never serve two handshakes.
func (s *FilePreKeyStore) ConsumeOneTimePreKey(id uint32) (domain.OneTimePreKeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[uint32][]byte)
	if err := readJSON(filepath.Join(s.dir, opkFile), &m); err != nil {
		return domain.OneTimePreKeyPair{}, false, err
	}
	raw, ok := m[id]
	if !ok {
		return domain.OneTimePreKeyPair{}, false, nil
	}
	rec, err := wire.ParsePreKeyRecord(raw)
	if err != nil {
		return domain.OneTimePreKeyPair{}, false, err
	}
	delete(m, id)
	if err := writeJSON(filepath.Join(s.dir, opkFile), m, 0o600); err != nil {
		return domain.OneTimePreKeyPair{}, false, err
	}
	return domain.OneTimePreKeyPair{ID: rec.ID, Priv: rec.KeyPair.Private, Pub: rec.KeyPair.Public}, true, nil
}

func (s *FilePreKeyStore) ListOneTimePreKeyPublics() ([]domain.OneTimePreKeyPublic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[uint32][]byte)
	if err := readJSON(filepath.Join(s.dir, opkFile), &m); err != nil {
		return nil, err
	}
	out := make([]domain.OneTimePreKeyPublic, 0, len(m))
	for _, raw := range m {
		rec, err := wire.ParsePreKeyRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.OneTimePreKeyPublic{ID: rec.ID, Pub: rec.KeyPair.Public})
	}
	return out, nil
}

// ---------- KEM pre-keys ----------

func (s *FilePreKeyStore) SaveKEMPreKey(pair domain.KEMPreKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[uint32][]byte)
	_ = readJSON(filepath.Join(s.dir, kemFile), &m)

	rec := wire.KEMPreKeyRecord{
		ID:        pair.ID,
		EncapKey:  pair.EncapKey,
		Seed:      pair.Seed,
		Signature: pair.Signature,
		Timestamp: pair.CreatedAt,
	}
	m[pair.ID] = rec.Serialize()
	if err := writeJSON(filepath.Join(s.dir, kemFile), m, 0o600); err != nil {
		return err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}
	if meta.LastResort == nil {
		meta.LastResort = make(map[uint32]bool)
	}
	meta.LastResort[pair.ID] = pair.LastResort
	return writeJSON(filepath.Join(s.dir, prekeyMeta), meta, 0o600)
}

func (s *FilePreKeyStore) LoadKEMPreKey(id uint32) (domain.KEMPreKeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[uint32][]byte)
	if err := readJSON(filepath.Join(s.dir, kemFile), &m); err != nil {
		return domain.KEMPreKeyPair{}, false, err
	}
	raw, ok := m[id]
	if !ok {
		return domain.KEMPreKeyPair{}, false, nil
	}
	rec, err := wire.ParseKEMPreKeyRecord(raw)
	if err != nil {
		return domain.KEMPreKeyPair{}, false, err
	}
	meta, err := s.loadMeta()
	if err != nil {
		return domain.KEMPreKeyPair{}, false, err
	}
	return domain.KEMPreKeyPair{
		ID:         rec.ID,
		Seed:       rec.Seed,
		EncapKey:   rec.EncapKey,
		Signature:  rec.Signature,
		LastResort: meta.LastResort[rec.ID],
		CreatedAt:  rec.Timestamp,
	}, true, nil
}

func (s *FilePreKeyStore) SetCurrentKEMPreKeyID(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}
	meta.CurrentKEMID = id
	return writeJSON(filepath.Join(s.dir, prekeyMeta), meta, 0o600)
}

func (s *FilePreKeyStore) CurrentKEMPreKeyID() (uint32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		return 0, false, err
	}
	return meta.CurrentKEMID, meta.CurrentKEMID != 0, nil
}

func (s *FilePreKeyStore) loadMeta() (prekeyMetadata, error) {
	var meta prekeyMetadata
	if err := readJSON(filepath.Join(s.dir, prekeyMeta), &meta); err != nil {
		return prekeyMetadata{}, err
	}
	return meta, nil
}

// Compile-time assertion that FilePreKeyStore implements domain.PreKeyStore.
var _ domain.PreKeyStore = (*FilePreKeyStore)(nil)
