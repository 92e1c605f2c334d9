package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"whisperkit/internal/crypto"
)

// envelopeVersion is the on-disk encrypted blob format version.
const envelopeVersion = 1

// errWrongPassphrase covers both a bad passphrase and a corrupted blob; the
// AEAD cannot distinguish them.
var errWrongPassphrase = errors.New("wrong passphrase or corrupted keystore")

// envelope is the on-disk JSON structure around sealed key material.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// seal encrypts raw under a passphrase-derived key.
func seal(passphrase string, raw []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	nonce, ct, err := crypto.EncryptSecret(passphrase, raw, salt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{V: envelopeVersion, Salt: salt, Nonce: nonce, Cipher: ct})
}

// open decrypts a sealed blob.
func open(passphrase string, blob []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, err
	}
	if env.V > envelopeVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", env.V)
	}
	decrypt := crypto.DecryptSecret
	if env.V == 0 {
		// Version 0 blobs derived their KEK with scrypt.
		decrypt = crypto.DecryptLegacySecret
	}
	raw, err := decrypt(passphrase, env.Salt, env.Nonce, env.Cipher)
	if err != nil {
		return nil, errWrongPassphrase
	}
	return raw, nil
}
