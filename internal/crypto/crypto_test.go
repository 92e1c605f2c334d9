package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkit/internal/domain"
)

func TestEd25519SignAndVerify(t *testing.T) {
	priv, pub, err := GenerateEd25519()
	require.NoError(t, err)

	msg := []byte("signed prekey bytes")
	sig := SignEd25519(priv, msg)
	require.Len(t, sig, SignatureSize)
	require.NoError(t, VerifyEd25519(pub, msg, sig))

	assert.ErrorIs(t, VerifyEd25519(pub, []byte("other"), sig), domain.ErrSignatureVerification)
	assert.ErrorIs(t, VerifyEd25519(pub, msg, sig[:SignatureSize-1]), domain.ErrSignatureVerification,
		"a short signature must fail, not panic")
	assert.ErrorIs(t, VerifyEd25519(pub, msg, nil), domain.ErrSignatureVerification)
}

func TestFingerprintFormat(t *testing.T) {
	var pub domain.X25519Public
	pub[0] = 0x42

	fp := Fingerprint(pub)
	groups := strings.Split(string(fp), " ")
	assert.Len(t, groups, 5)
	for _, g := range groups {
		assert.Len(t, g, 4)
	}
	assert.Equal(t, fp, Fingerprint(pub), "fingerprint is deterministic")

	pub[0] = 0x43
	assert.NotEqual(t, fp, Fingerprint(pub))
}

func TestWipeAll(t *testing.T) {
	a := []byte{1, 2, 3}
	b := []byte{4, 5}
	WipeAll(a, b, nil)
	assert.Equal(t, []byte{0, 0, 0}, a)
	assert.Equal(t, []byte{0, 0}, b)
}
