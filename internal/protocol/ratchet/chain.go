package ratchet

import (
	"whisperkit/internal/crypto"
)

// Single-byte HMAC inputs for the symmetric chain ratchet.
const (
	messageKeySeedLabel = 0x01
	chainAdvanceLabel   = 0x02
)

// kdfInfoMessageKeys is the HKDF info string for message-key expansion.
// Fixed by the interoperating protocol; do not change.
const kdfInfoMessageKeys = "WhisperMessageKeys"

// ChainKey is a 32-byte symmetric ratchet seed plus the index of the next
// message key it will produce. Advancing is a pure function; the same chain
// key value must never be used to derive two different message keys.
type ChainKey struct {
	Key   [32]byte `json:"key"`
	Index uint32   `json:"index"`
}

// Advance returns the next chain key: HMAC-SHA256(key, 0x02).
func (c ChainKey) Advance() ChainKey {
	return ChainKey{
		Key:   crypto.HMACSHA256(c.Key[:], []byte{chainAdvanceLabel}),
		Index: c.Index + 1,
	}
}

// messageKeySeed returns HMAC-SHA256(key, 0x01), the input keying material
// for message-key expansion.
func (c ChainKey) messageKeySeed() [32]byte {
	return crypto.HMACSHA256(c.Key[:], []byte{messageKeySeedLabel})
}

// MessageKeys is the single-use bundle derived for one message. Consumed
// exactly once; discard after use or park in the skipped-key store.
type MessageKeys struct {
	CipherKey [32]byte `json:"cipher_key"`
	MacKey    [32]byte `json:"mac_key"`
	IV        [16]byte `json:"iv"`
	Index     uint32   `json:"index"`
}

// MessageKeys expands this chain key's seed, mixed with the post-quantum
// epoch key, into cipher key, MAC key and IV. Appending the PQ key to the
// HKDF input binds every message key to both the classical chain and the
// current PQ epoch.
func (c ChainKey) MessageKeys(pqKey [32]byte) MessageKeys {
	seed := c.messageKeySeed()
	ikm := make([]byte, 0, 64)
	ikm = append(ikm, seed[:]...)
	ikm = append(ikm, pqKey[:]...)

	okm := crypto.HKDFSHA256(ikm, nil, []byte(kdfInfoMessageKeys), 80)
	defer crypto.Wipe(okm)

	mk := MessageKeys{Index: c.Index}
	copy(mk.CipherKey[:], okm[0:32])
	copy(mk.MacKey[:], okm[32:64])
	copy(mk.IV[:], okm[64:80])
	return mk
}
