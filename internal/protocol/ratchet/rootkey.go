package ratchet

import (
	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
)

// kdfInfoRatchet is the HKDF info string for root-key derivation.
// Fixed by the interoperating protocol; do not change.
const kdfInfoRatchet = "WhisperRatchet"

// RootKey seeds each DH ratchet step. A step supersedes the root key rather
// than mutating it: Derive returns the successor root plus the new chain key.
type RootKey [32]byte

// CreateChain computes the DH shared secret for the given pair and peer key
// and applies the root KDF to it.
func (r RootKey) CreateChain(ourKey domain.KeyPair, theirKey domain.X25519Public) (RootKey, ChainKey, error) {
	dh, err := crypto.DH(ourKey.Private, theirKey)
	if err != nil {
		return RootKey{}, ChainKey{}, err
	}
	next, chain := r.Derive(dh)
	crypto.Wipe(dh[:])
	return next, chain, nil
}

// Derive applies the root KDF to a DH output: HKDF-SHA256 with the current
// root key as salt and the shared secret as input keying material, expanded
// to a new root key and a chain key.
func (r RootKey) Derive(dhOut [32]byte) (RootKey, ChainKey) {
	okm := crypto.HKDFSHA256(dhOut[:], r[:], []byte(kdfInfoRatchet), 64)
	defer crypto.Wipe(okm)

	var next RootKey
	var chain ChainKey
	copy(next[:], okm[:32])
	copy(chain.Key[:], okm[32:])
	return next, chain
}
