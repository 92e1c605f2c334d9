package wire

import (
	"fmt"

	"whisperkit/internal/domain"
)

const (
	// CurveKeyType is the one-byte prefix identifying a Curve25519 point.
	CurveKeyType = 0x05

	// PublicKeySize is the serialized public key size: type byte + 32 raw bytes.
	PublicKeySize = 33
)

// EncodePublicKey serializes a Curve25519 public key with its type prefix.
func EncodePublicKey(k domain.X25519Public) []byte {
	out := make([]byte, PublicKeySize)
	out[0] = CurveKeyType
	copy(out[1:], k[:])
	return out
}

// DecodePublicKey parses a 33-byte prefixed public key.
func DecodePublicKey(b []byte) (domain.X25519Public, error) {
	var k domain.X25519Public
	if len(b) != PublicKeySize {
		return k, fmt.Errorf("%w: public key is %d bytes, want %d",
			domain.ErrInvalidKeyMaterial, len(b), PublicKeySize)
	}
	if b[0] != CurveKeyType {
		return k, fmt.Errorf("%w: unknown key type 0x%02x", domain.ErrInvalidKeyMaterial, b[0])
	}
	copy(k[:], b[1:])
	return k, nil
}
