package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"whisperkit/internal/domain"
)

// SignatureSize is the length of an Ed25519 signature in the pre-key
// records and bundles.
const SignatureSize = ed25519.SignatureSize

// GenerateEd25519 returns a new signing key pair for pre-key attestation.
func GenerateEd25519() (priv domain.Ed25519Private, pub domain.Ed25519Public, err error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return priv, pub, err
	}
	copy(priv[:], sk)
	copy(pub[:], pk)
	return priv, pub, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 checks sig over msg. A wrong-length signature fails the
// same way a mismatched one does.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) error {
	if len(sig) != SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes, want %d",
			domain.ErrSignatureVerification, len(sig), SignatureSize)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig) {
		return domain.ErrSignatureVerification
	}
	return nil
}
