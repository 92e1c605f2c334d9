package domain

// OneTimePreKeyPair is the full (private+public) one-time pre-key stored locally.
type OneTimePreKeyPair struct {
	ID   uint32        `json:"id"`
	Priv X25519Private `json:"priv"`
	Pub  X25519Public  `json:"pub"`
}

// OneTimePreKeyPublic is only the public half (sent in bundles).
type OneTimePreKeyPublic struct {
	ID  uint32       `json:"id"`
	Pub X25519Public `json:"pub"`
}

// SignedPreKeyPair is a medium-term X25519 pre-key signed by the identity's
// Ed25519 key.
type SignedPreKeyPair struct {
	ID        uint32        `json:"id"`
	Priv      X25519Private `json:"priv"`
	Pub       X25519Public  `json:"pub"`
	Signature []byte        `json:"signature"`
	CreatedAt int64         `json:"created_at"`
}

// KEMPreKeyPair is an ML-KEM-1024 pre-key. Seed is the 64-byte decapsulation
// seed; EncapKey is the serialized encapsulation key published in bundles.
// The last-resort KEM pre-key survives until rotated; one-time KEM pre-keys
// are consumed on use.
type KEMPreKeyPair struct {
	ID         uint32 `json:"id"`
	Seed       []byte `json:"seed"`
	EncapKey   []byte `json:"encap_key"`
	Signature  []byte `json:"signature"`
	LastResort bool   `json:"last_resort"`
	CreatedAt  int64  `json:"created_at"`
}

// PreKeyBundle is the set of public keys a party registers with the relay.
// Signatures cover the serialized public keys and verify against SigningKey.
type PreKeyBundle struct {
	Username       Username      `json:"username"`
	RegistrationID uint32        `json:"registration_id"`
	IdentityKey    X25519Public  `json:"identity_key"`
	SigningKey     Ed25519Public `json:"signing_key"`

	SignedPreKeyID        uint32       `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public `json:"signed_pre_key"`
	SignedPreKeySignature []byte       `json:"signed_pre_key_signature"`

	KEMPreKeyID        uint32 `json:"kem_pre_key_id"`
	KEMPreKey          []byte `json:"kem_pre_key"`
	KEMPreKeySignature []byte `json:"kem_pre_key_signature"`

	OneTimePreKeys []OneTimePreKeyPublic `json:"one_time_pre_keys,omitempty"`
}
