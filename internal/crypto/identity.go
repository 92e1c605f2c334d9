package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"whisperkit/internal/domain"
)

const (
	KeyBytes   = 32
	SaltBytes  = 16
	NonceBytes = chacha20poly1305.NonceSize

	// maxRegistrationID keeps registration identifiers within the 14-bit
	// space the wire format allots them.
	maxRegistrationID = 16380
)

// NewIdentity generates a fresh identity: an X25519 pair for agreement, an
// Ed25519 pair for signing, and a random registration ID.
func NewIdentity() (domain.Identity, error) {
	xPriv, xPub, err := GenerateX25519()
	if err != nil {
		return domain.Identity{}, err
	}
	edPriv, edPub, err := GenerateEd25519()
	if err != nil {
		return domain.Identity{}, err
	}
	regID, err := randomRegistrationID()
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		XPub:           xPub,
		XPriv:          xPriv,
		EdPub:          edPub,
		EdPriv:         edPriv,
		RegistrationID: regID,
	}, nil
}

func randomRegistrationID() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:])%maxRegistrationID + 1, nil
}

// DeriveKEK derives a key-encryption key from a passphrase and salt using
// Argon2id (64 MiB, 1 pass, 4 lanes).
func DeriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 1<<16, 4, KeyBytes)
}

// DeriveLegacyKEK derives the key-encryption key used by version-0 keystore
// blobs, which predate the switch to Argon2id.
func DeriveLegacyKEK(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, KeyBytes)
}

// EncryptSecret encrypts plaintext with a KEK derived from the passphrase
// and salt. Used by the stores to keep private key material at rest.
func EncryptSecret(passphrase string, plaintext []byte, salt []byte) (nonce, ciphertext []byte, err error) {
	if len(salt) != SaltBytes {
		return nil, nil, errors.New("invalid salt size")
	}
	kek := DeriveKEK(passphrase, salt)
	defer Wipe(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ct, nil
}

// DecryptSecret decrypts a ciphertext with a KEK derived from the passphrase
// and salt.
func DecryptSecret(passphrase string, salt, nonce, ciphertext []byte) ([]byte, error) {
	if len(salt) != SaltBytes {
		return nil, errors.New("invalid salt size")
	}
	kek := DeriveKEK(passphrase, salt)
	defer Wipe(kek)
	return openWithKEK(kek, nonce, ciphertext)
}

// DecryptLegacySecret decrypts a version-0 keystore ciphertext, whose KEK
// was derived with scrypt rather than Argon2id.
func DecryptLegacySecret(passphrase string, salt, nonce, ciphertext []byte) ([]byte, error) {
	if len(salt) != SaltBytes {
		return nil, errors.New("invalid salt size")
	}
	kek, err := DeriveLegacyKEK(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer Wipe(kek)
	return openWithKEK(kek, nonce, ciphertext)
}

func openWithKEK(kek, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}
