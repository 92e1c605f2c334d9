package domain

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key.
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// KeyPair is an X25519 key pair. Ownership is exclusive: a pair held by a
// ratchet state is never shared with another session.
type KeyPair struct {
	Private X25519Private `json:"private"`
	Public  X25519Public  `json:"public"`
}

// Identity holds a party's long-term key material: an X25519 pair for
// Diffie-Hellman agreement and an Ed25519 pair for signing pre-keys.
// Immutable after creation; shared by reference across sessions.
type Identity struct {
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`

	// RegistrationID is the 14-bit device registration identifier carried
	// in pre-key messages.
	RegistrationID uint32 `json:"registration_id"`
}

// DHPair returns the identity's X25519 pair.
func (id Identity) DHPair() KeyPair {
	return KeyPair{Private: id.XPriv, Public: id.XPub}
}
