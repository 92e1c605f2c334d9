// Package pqxdh implements the hybrid key agreement that bootstraps a
// ratchet session: the classical X3DH triple (or quadruple) Diffie-Hellman
// against a published pre-key bundle, combined with an ML-KEM-1024
// encapsulation so the resulting session is secure even if the curve falls
// to a quantum adversary.
package pqxdh

import (
	"fmt"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/ratchet"
	"whisperkit/internal/protocol/session"
	"whisperkit/internal/protocol/spqr"
	"whisperkit/internal/protocol/wire"
)

// kdfInfo is the HKDF info string for handshake key derivation. Fixed by
// the interoperating protocol; do not change.
const kdfInfo = "WhisperText"

// discontinuity is prepended to the DH concatenation so the handshake KDF
// input can never collide with an input from a curve with different point
// encoding.
var discontinuity = [32]byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}

// InitializeAlice runs the initiator side of the handshake against a peer's
// pre-key bundle. Both signatures in the bundle are verified before any key
// material is derived. On success the returned state can encrypt
// immediately; its pending pre-key block must ride on every outgoing
// message until the peer's first reply arrives.
func InitializeAlice(local domain.Identity, bundle domain.PreKeyBundle) (*session.State, error) {
	if err := crypto.VerifyEd25519(bundle.SigningKey,
		wire.EncodePublicKey(bundle.SignedPreKey), bundle.SignedPreKeySignature); err != nil {
		return nil, fmt.Errorf("signed pre-key: %w", err)
	}
	if err := crypto.VerifyEd25519(bundle.SigningKey,
		bundle.KEMPreKey, bundle.KEMPreKeySignature); err != nil {
		return nil, fmt.Errorf("KEM pre-key: %w", err)
	}

	kemSecret, kemCiphertext, err := crypto.Encapsulate(bundle.KEMPreKey)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(kemSecret)

	baseKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	dh1, err := crypto.DH(local.XPriv, bundle.SignedPreKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}
	dh2, err := crypto.DH(baseKey.Private, bundle.IdentityKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}
	dh3, err := crypto.DH(baseKey.Private, bundle.SignedPreKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}

	secret := make([]byte, 0, 32*6)
	secret = append(secret, discontinuity[:]...)
	secret = append(secret, dh1[:]...)
	secret = append(secret, dh2[:]...)
	secret = append(secret, dh3[:]...)

	var preKeyID uint32
	if len(bundle.OneTimePreKeys) > 0 {
		opk := bundle.OneTimePreKeys[0]
		dh4, err := crypto.DH(baseKey.Private, opk.Pub)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
		}
		secret = append(secret, dh4[:]...)
		crypto.Wipe(dh4[:])
		preKeyID = opk.ID
	}
	secret = append(secret, kemSecret...)
	crypto.WipeAll(dh1[:], dh2[:], dh3[:])

	rootKey, handshakeChain, pqRoot := deriveKeys(secret)
	crypto.Wipe(secret)

	ratchetKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	dhSend, err := crypto.DH(ratchetKey.Private, bundle.SignedPreKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}

	s := session.New()
	s.LocalIdentity = local.XPub
	s.RemoteIdentity = bundle.IdentityKey
	s.LocalRegistrationID = local.RegistrationID
	s.RemoteRegistrationID = bundle.RegistrationID
	s.PQ = spqr.NewState(pqRoot)

	// The peer's signed pre-key doubles as its first ratchet key: its
	// handshake-derived chain receives until the peer ratchets forward.
	s.AddReceiverChain(bundle.SignedPreKey, session.Chain{Key: handshakeChain, PQ: s.PQ})
	s.PeerRatchetKey = bundle.SignedPreKey

	sendEpoch := s.PQ
	newRoot, sendChain := rootKey.Derive(dhSend)
	s.PQ.RatchetStep(dhSend)
	crypto.Wipe(dhSend[:])

	s.RootKey = newRoot
	s.SendRatchetKey = ratchetKey
	s.Sending = &session.Chain{Key: sendChain, PQ: sendEpoch}

	s.PendingPreKey = &session.PendingPreKey{
		PreKeyID:       preKeyID,
		SignedPreKeyID: bundle.SignedPreKeyID,
		KEMPreKeyID:    bundle.KEMPreKeyID,
		KEMCiphertext:  kemCiphertext,
		BaseKey:        baseKey.Public,
	}
	return s, nil
}

// BobParams is the responder's view of an incoming handshake: its own
// pre-key material matched by ID against the pre-key message, plus the
// initiator's public keys from that message.
type BobParams struct {
	Identity      domain.Identity
	SignedPreKey  domain.SignedPreKeyPair
	OneTimePreKey *domain.OneTimePreKeyPair
	KEMPreKey     domain.KEMPreKeyPair
	KEMCiphertext []byte

	TheirIdentityKey    domain.X25519Public
	TheirBaseKey        domain.X25519Public
	TheirRegistrationID uint32
}

// InitializeBob runs the responder side. The returned state cannot encrypt
// until the first decrypted message triggers a ratchet step; its receiving
// side is served by the handshake-derived chain keyed by our signed
// pre-key.
func InitializeBob(p BobParams) (*session.State, error) {
	dk, err := crypto.KEMFromSeed(p.KEMPreKey.Seed)
	if err != nil {
		return nil, err
	}
	kemSecret, err := crypto.Decapsulate(dk, p.KEMCiphertext)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(kemSecret)

	dh1, err := crypto.DH(p.SignedPreKey.Priv, p.TheirIdentityKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}
	dh2, err := crypto.DH(p.Identity.XPriv, p.TheirBaseKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}
	dh3, err := crypto.DH(p.SignedPreKey.Priv, p.TheirBaseKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}

	secret := make([]byte, 0, 32*6)
	secret = append(secret, discontinuity[:]...)
	secret = append(secret, dh1[:]...)
	secret = append(secret, dh2[:]...)
	secret = append(secret, dh3[:]...)
	if p.OneTimePreKey != nil {
		dh4, err := crypto.DH(p.OneTimePreKey.Priv, p.TheirBaseKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
		}
		secret = append(secret, dh4[:]...)
		crypto.Wipe(dh4[:])
	}
	secret = append(secret, kemSecret...)
	crypto.WipeAll(dh1[:], dh2[:], dh3[:])

	rootKey, handshakeChain, pqRoot := deriveKeys(secret)
	crypto.Wipe(secret)

	s := session.New()
	s.LocalIdentity = p.Identity.XPub
	s.RemoteIdentity = p.TheirIdentityKey
	s.LocalRegistrationID = p.Identity.RegistrationID
	s.RemoteRegistrationID = p.TheirRegistrationID
	s.RootKey = rootKey
	s.PQ = spqr.NewState(pqRoot)

	// Our signed pre-key serves as the first ratchet key; the handshake
	// chain sends until the initiator's ratchet key arrives and forces a
	// step. No receiving chain exists yet.
	s.SendRatchetKey = domain.KeyPair{Private: p.SignedPreKey.Priv, Public: p.SignedPreKey.Pub}
	s.Sending = &session.Chain{Key: handshakeChain, PQ: s.PQ}
	return s, nil
}

// deriveKeys expands the concatenated handshake secrets into the initial
// root key, chain key and post-quantum ratchet root.
func deriveKeys(secret []byte) (ratchet.RootKey, ratchet.ChainKey, [32]byte) {
	okm := crypto.HKDFSHA256(secret, nil, []byte(kdfInfo), 96)
	defer crypto.Wipe(okm)

	var root ratchet.RootKey
	copy(root[:], okm[0:32])
	var chain ratchet.ChainKey
	copy(chain.Key[:], okm[32:64])
	var pqRoot [32]byte
	copy(pqRoot[:], okm[64:96])
	return root, chain, pqRoot
}
