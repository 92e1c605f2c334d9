package ratchet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkit/internal/crypto"
)

func TestChainKey_AdvanceIsDeterministicAndIrreversible(t *testing.T) {
	var ck ChainKey
	copy(ck.Key[:], []byte("0123456789abcdef0123456789abcdef"))

	next := ck.Advance()
	again := ck.Advance()
	assert.Equal(t, next, again, "advance must be a pure function")
	assert.NotEqual(t, ck.Key, next.Key)
	assert.Equal(t, uint32(1), next.Index)

	// Advancing twice from the same point lands on the same chain key.
	assert.Equal(t, next.Advance(), ck.Advance().Advance())
}

func TestChainKey_MessageKeysDifferPerIndexAndPQEpoch(t *testing.T) {
	var ck ChainKey
	ck.Key[0] = 0xAA
	var pqA, pqB [32]byte
	pqB[0] = 1

	mk0 := ck.MessageKeys(pqA)
	mk1 := ck.Advance().MessageKeys(pqA)
	assert.NotEqual(t, mk0.CipherKey, mk1.CipherKey)
	assert.Equal(t, uint32(0), mk0.Index)
	assert.Equal(t, uint32(1), mk1.Index)

	// Same chain position, different PQ epoch: different message keys.
	mkOther := ck.MessageKeys(pqB)
	assert.NotEqual(t, mk0.CipherKey, mkOther.CipherKey)
	assert.NotEqual(t, mk0.MacKey, mkOther.MacKey)
}

func TestRootKey_CreateChainMatchesBothDirections(t *testing.T) {
	a, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	b, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	var root RootKey
	root[0] = 0x42

	rootA, chainA, err := root.CreateChain(a, b.Public)
	require.NoError(t, err)
	rootB, chainB, err := root.CreateChain(b, a.Public)
	require.NoError(t, err)

	assert.Equal(t, rootA, rootB, "both parties derive the same successor root")
	assert.Equal(t, chainA.Key, chainB.Key)
	assert.NotEqual(t, root, rootA, "root key must be superseded")
}
