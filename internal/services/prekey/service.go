package prekey

import (
	"errors"
	"time"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/wire"
)

// ErrNoSignedPreKey indicates no signed pre-key has been generated yet.
var ErrNoSignedPreKey = errors.New("no signed prekey available; run prekey generation first")

// Service manages pre-key pairs and builds the public bundle.
type Service struct {
	ids domain.IdentityStore
	ps  domain.PreKeyStore
	bs  domain.PreKeyBundleStore
}

// New constructs a pre-key service with the given stores.
func New(ids domain.IdentityStore, ps domain.PreKeyStore, bs domain.PreKeyBundleStore) *Service {
	return &Service{ids: ids, ps: ps, bs: bs}
}

// GenerateAndStorePreKeys rotates the signed pre-key and the KEM pre-key
// and generates n fresh one-time pre-keys. The KEM pre-key is last-resort:
// it is reused across handshakes until the next rotation. Numeric IDs are
// allocated from 1; 0 means absent on the wire.
func (s *Service) GenerateAndStorePreKeys(passphrase string, n int) (domain.PreKeyBundle, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	now := time.Now().Unix()

	// Signed pre-key, signed over its wire encoding.
	spkID, _, err := s.ps.CurrentSignedPreKeyID()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	spk := domain.SignedPreKeyPair{
		ID:        spkID + 1,
		Priv:      spkPriv,
		Pub:       spkPub,
		Signature: crypto.SignEd25519(id.EdPriv, wire.EncodePublicKey(spkPub)),
		CreatedAt: now,
	}
	if err := s.ps.SaveSignedPreKey(spk); err != nil {
		return domain.PreKeyBundle{}, err
	}
	if err := s.ps.SetCurrentSignedPreKeyID(spk.ID); err != nil {
		return domain.PreKeyBundle{}, err
	}

	// KEM pre-key, signed over the serialized encapsulation key.
	kemID, _, err := s.ps.CurrentKEMPreKeyID()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	dk, err := crypto.GenerateKEM()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	kem := domain.KEMPreKeyPair{
		ID:         kemID + 1,
		Seed:       dk.Bytes(),
		EncapKey:   dk.EncapsulationKey().Bytes(),
		LastResort: true,
		CreatedAt:  now,
	}
	kem.Signature = crypto.SignEd25519(id.EdPriv, kem.EncapKey)
	if err := s.ps.SaveKEMPreKey(kem); err != nil {
		return domain.PreKeyBundle{}, err
	}
	if err := s.ps.SetCurrentKEMPreKeyID(kem.ID); err != nil {
		return domain.PreKeyBundle{}, err
	}

	// One-time pre-keys, continuing the ID sequence past any still stored.
	existing, err := s.ps.ListOneTimePreKeyPublics()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	var nextID uint32 = 1
	for _, p := range existing {
		if p.ID >= nextID {
			nextID = p.ID + 1
		}
	}
	pairs := make([]domain.OneTimePreKeyPair, 0, n)
	for i := 0; i < n; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return domain.PreKeyBundle{}, err
		}
		pairs = append(pairs, domain.OneTimePreKeyPair{ID: nextID, Priv: priv, Pub: pub})
		nextID++
	}
	if err := s.ps.SaveOneTimePreKeys(pairs); err != nil {
		return domain.PreKeyBundle{}, err
	}

	return s.buildBundle(id, "")
}

// LoadPreKeyBundle builds the public bundle for username from the current
// pre-keys, caches it, and returns it.
func (s *Service) LoadPreKeyBundle(passphrase string, username domain.Username) (domain.PreKeyBundle, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	b, err := s.buildBundle(id, username)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if err := s.bs.SavePreKeyBundle(b); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return b, nil
}

func (s *Service) buildBundle(id domain.Identity, username domain.Username) (domain.PreKeyBundle, error) {
	spkID, ok, err := s.ps.CurrentSignedPreKeyID()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, ErrNoSignedPreKey
	}
	spk, found, err := s.ps.LoadSignedPreKey(spkID)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !found {
		return domain.PreKeyBundle{}, ErrNoSignedPreKey
	}

	kemID, ok, err := s.ps.CurrentKEMPreKeyID()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, ErrNoSignedPreKey
	}
	kem, found, err := s.ps.LoadKEMPreKey(kemID)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !found {
		return domain.PreKeyBundle{}, ErrNoSignedPreKey
	}

	oneTime, err := s.ps.ListOneTimePreKeyPublics()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	return domain.PreKeyBundle{
		Username:       username,
		RegistrationID: id.RegistrationID,
		IdentityKey:    id.XPub,
		SigningKey:     id.EdPub,

		SignedPreKeyID:        spk.ID,
		SignedPreKey:          spk.Pub,
		SignedPreKeySignature: spk.Signature,

		KEMPreKeyID:        kem.ID,
		KEMPreKey:          kem.EncapKey,
		KEMPreKeySignature: kem.Signature,

		OneTimePreKeys: oneTime,
	}, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
