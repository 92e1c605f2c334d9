package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestEncryptCBC_ReferenceVector(t *testing.T) {
	var key [32]byte
	var iv [16]byte
	copy(key[:], fromHex(t, "4e22eb16d964779994222e82192ce9f747da72dc4abe49dfdeeb71d0ffe3796e"))
	copy(iv[:], fromHex(t, "6f8a557ddc0a140c878063a6d5f31d3d"))
	plaintext := fromHex(t, "30736294a124482a4159")

	ct := EncryptCBC(key, iv, plaintext)
	require.Len(t, ct, 16)
	assert.Equal(t, fromHex(t, "dd3f573ab4508b9ed0e45e0baf5608f3"), ct[:16])

	back, err := DecryptCBC(key, iv, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, back)
}

func TestDecryptCBC_BitFlippedIVChangesFirstBlockOnly(t *testing.T) {
	var key [32]byte
	var iv [16]byte
	copy(key[:], fromHex(t, "4e22eb16d964779994222e82192ce9f747da72dc4abe49dfdeeb71d0ffe3796e"))
	copy(iv[:], fromHex(t, "6f8a557ddc0a140c878063a6d5f31d3d"))
	ct := EncryptCBC(key, iv, fromHex(t, "30736294a124482a4159"))

	// CBC error propagation: flipping an IV bit flips the matching
	// plaintext bit in the first block and nothing else. No error.
	iv[0] ^= 0x80
	got, err := DecryptCBC(key, iv, ct)
	require.NoError(t, err)
	assert.Equal(t, fromHex(t, "b0736294a124482a4159"), got)
}

func TestEncryptCBC_EmptyPlaintext(t *testing.T) {
	var key [32]byte
	var iv [16]byte
	key[0] = 1

	ct := EncryptCBC(key, iv, nil)
	require.Len(t, ct, 16, "empty plaintext pads to exactly one block")

	back, err := DecryptCBC(key, iv, ct)
	require.NoError(t, err)
	assert.Empty(t, back)
}

func TestDecryptCBC_RejectsBadLengths(t *testing.T) {
	var key [32]byte
	var iv [16]byte
	for _, n := range []int{0, 1, 15, 17, 31} {
		_, err := DecryptCBC(key, iv, make([]byte, n))
		assert.Error(t, err, "length %d", n)
	}
}
