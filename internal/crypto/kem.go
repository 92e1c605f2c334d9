package crypto

import (
	"crypto/mlkem"
	"fmt"

	"whisperkit/internal/domain"
)

// GenerateKEM returns a fresh ML-KEM-1024 decapsulation key.
func GenerateKEM() (*mlkem.DecapsulationKey1024, error) {
	return mlkem.GenerateKey1024()
}

// KEMFromSeed rebuilds a decapsulation key from its 64-byte seed.
func KEMFromSeed(seed []byte) (*mlkem.DecapsulationKey1024, error) {
	if len(seed) != mlkem.SeedSize {
		return nil, fmt.Errorf("%w: KEM seed is %d bytes, want %d",
			domain.ErrInvalidKeyMaterial, len(seed), mlkem.SeedSize)
	}
	return mlkem.NewDecapsulationKey1024(seed)
}

// Encapsulate derives a shared secret against the serialized encapsulation
// key and returns the secret plus the ciphertext to transmit.
func Encapsulate(encapKey []byte) (sharedSecret, ciphertext []byte, err error) {
	if len(encapKey) != mlkem.EncapsulationKeySize1024 {
		return nil, nil, fmt.Errorf("%w: KEM public key is %d bytes, want %d",
			domain.ErrInvalidKeyMaterial, len(encapKey), mlkem.EncapsulationKeySize1024)
	}
	ek, err := mlkem.NewEncapsulationKey1024(encapKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}
	sharedSecret, ciphertext = ek.Encapsulate()
	return sharedSecret, ciphertext, nil
}

// Decapsulate recovers the shared secret from a KEM ciphertext. ML-KEM
// rejects implicitly: a tampered ciphertext yields a different secret, not
// an error, so authentication failures surface later at the MAC check.
func Decapsulate(dk *mlkem.DecapsulationKey1024, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != mlkem.CiphertextSize1024 {
		return nil, fmt.Errorf("%w: KEM ciphertext is %d bytes, want %d",
			domain.ErrMalformedMessage, len(ciphertext), mlkem.CiphertextSize1024)
	}
	return dk.Decapsulate(ciphertext)
}
