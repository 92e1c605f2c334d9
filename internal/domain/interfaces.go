package domain

import "context"

// IdentityStore persists the long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// PreKeyStore manages signed, one-time and KEM pre-keys.
type PreKeyStore interface {
	// Signed pre-keys
	SaveSignedPreKey(pair SignedPreKeyPair) error
	LoadSignedPreKey(id uint32) (SignedPreKeyPair, bool, error)
	SetCurrentSignedPreKeyID(id uint32) error
	CurrentSignedPreKeyID() (uint32, bool, error)

	// One-time pre-keys
	SaveOneTimePreKeys(pairs []OneTimePreKeyPair) error
	ConsumeOneTimePreKey(id uint32) (OneTimePreKeyPair, bool, error)
	ListOneTimePreKeyPublics() ([]OneTimePreKeyPublic, error)

	// KEM pre-keys
	SaveKEMPreKey(pair KEMPreKeyPair) error
	LoadKEMPreKey(id uint32) (KEMPreKeyPair, bool, error)
	CurrentKEMPreKeyID() (uint32, bool, error)
	SetCurrentKEMPreKeyID(id uint32) error
}

// PreKeyBundleStore caches the last bundle registered with the relay.
type PreKeyBundleStore interface {
	SavePreKeyBundle(b PreKeyBundle) error
	LoadPreKeyBundle(username Username) (PreKeyBundle, bool, error)
}

// SessionStore persists session records as opaque blobs keyed by peer.
// Serialization of the record itself belongs to the protocol layer; the
// store only moves bytes.
type SessionStore interface {
	SaveSessionRecord(peer Username, blob []byte) error
	LoadSessionRecord(peer Username) ([]byte, bool, error)
	DeleteSessionRecord(peer Username) error
}

// IdentityService creates and loads the local identity.
type IdentityService interface {
	GenerateIdentity(passphrase string) (Identity, Fingerprint, error)
	LoadIdentity(passphrase string) (Identity, error)
	Fingerprint(passphrase string) (Fingerprint, error)
}

// PreKeyService generates and assembles pre-key bundles.
type PreKeyService interface {
	GenerateAndStorePreKeys(passphrase string, n int) (PreKeyBundle, error)
	LoadPreKeyBundle(passphrase string, username Username) (PreKeyBundle, error)
}

// SessionService establishes and queries ratchet sessions.
type SessionService interface {
	Initiate(ctx context.Context, passphrase string, peer Username) error
	Established(peer Username) (bool, error)
	Delete(peer Username) error
}

// MessageService encrypts, sends, fetches and decrypts messages.
type MessageService interface {
	Send(ctx context.Context, passphrase string, from, to Username, plaintext []byte) error
	Receive(ctx context.Context, passphrase string, me Username, limit int) ([]DecryptedMessage, error)
}

// RelayClient talks to the relay server.
type RelayClient interface {
	RegisterPreKeyBundle(ctx context.Context, b PreKeyBundle) error
	FetchPreKeyBundle(ctx context.Context, username Username) (PreKeyBundle, error)

	SendMessage(ctx context.Context, env Envelope) error
	FetchMessages(ctx context.Context, username Username, limit int) ([]Envelope, error)
	AckMessages(ctx context.Context, username Username, count int) error
}
