package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/ratchet"
	"whisperkit/internal/protocol/spqr"
)

func testRoot(b byte) ratchet.RootKey {
	var r ratchet.RootKey
	for i := range r {
		r[i] = b
	}
	return r
}

// twoParties builds Alice and Bob as they stand right after a handshake:
// shared root and PQ root, Alice already holding a sending chain derived
// against Bob's ratchet key.
func twoParties(t *testing.T) (alice, bob *State) {
	t.Helper()

	a, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	b, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	root := testRoot(0x11)
	pq := spqr.NewState([32]byte{0x22})

	dh, err := crypto.DH(a.Private, b.Public)
	require.NoError(t, err)
	newRoot, sendChain := root.Derive(dh)

	alice = New()
	alice.RootKey = newRoot
	alice.SendRatchetKey = a
	alice.PeerRatchetKey = b.Public
	alice.Sending = &Chain{Key: sendChain, PQ: pq}
	alice.PQ = pq
	alice.PQ.RatchetStep(dh)

	bob = New()
	bob.RootKey = root
	bob.SendRatchetKey = b
	bob.PQ = pq
	return alice, bob
}

func TestDHRatchetConverges(t *testing.T) {
	alice, bob := twoParties(t)

	// Bob observing Alice's ratchet key must reconstruct her sending chain.
	require.NoError(t, bob.DHRatchet(alice.SendRatchetKey.Public))
	rc := bob.CurrentReceiverChain()
	require.NotNil(t, rc)
	assert.Equal(t, alice.Sending.Key, rc.Key)
	assert.Equal(t, alice.Sending.PQ, rc.PQ)
	require.NotNil(t, bob.Sending)

	// And Alice observing Bob's fresh key reconstructs his new sending chain.
	require.NoError(t, alice.DHRatchet(bob.SendRatchetKey.Public))
	arc := alice.CurrentReceiverChain()
	require.NotNil(t, arc)
	assert.Equal(t, bob.Sending.Key, arc.Key)
	assert.Equal(t, bob.Sending.PQ, arc.PQ)
}

func TestDHRatchetRecordsPrevCounter(t *testing.T) {
	alice, bob := twoParties(t)
	require.NoError(t, bob.DHRatchet(alice.SendRatchetKey.Public))

	for i := 0; i < 3; i++ {
		alice.Sending.Key = alice.Sending.Key.Advance()
	}
	require.NoError(t, alice.DHRatchet(bob.SendRatchetKey.Public))
	assert.Equal(t, uint32(3), alice.PrevCounter)
	assert.Equal(t, uint32(0), alice.Sending.Key.Index)
}

func TestDHRatchetRejectsRepeatedKey(t *testing.T) {
	alice, bob := twoParties(t)
	require.NoError(t, bob.DHRatchet(alice.SendRatchetKey.Public))
	assert.Error(t, bob.DHRatchet(alice.SendRatchetKey.Public))
}

func TestCloneIsolation(t *testing.T) {
	alice, bob := twoParties(t)
	require.NoError(t, bob.DHRatchet(alice.SendRatchetKey.Public))

	clone := bob.Clone()
	rc := clone.CurrentReceiverChain()
	require.NoError(t, clone.SkipKeys(rc, 4))
	clone.Sending.Key = clone.Sending.Key.Advance()
	clone.AddReceiverChain(domain.X25519Public{0xAA}, Chain{})

	assert.Empty(t, bob.Skipped)
	assert.Equal(t, uint32(0), bob.Sending.Key.Index)
	assert.Len(t, bob.Receivers, 1)
	assert.Len(t, clone.Skipped, 4)
	assert.Len(t, clone.Receivers, 2)
}

func TestSkipKeysBounds(t *testing.T) {
	alice, bob := twoParties(t)
	require.NoError(t, bob.DHRatchet(alice.SendRatchetKey.Public))
	rc := bob.CurrentReceiverChain()

	err := bob.SkipKeys(rc, MaxSkip+1)
	assert.ErrorIs(t, err, domain.ErrSkipWindowExceeded)
	assert.Empty(t, bob.Skipped, "rejected skip must not park partial keys")
	assert.Equal(t, uint32(0), rc.Key.Index)

	require.NoError(t, bob.SkipKeys(rc, 5))
	assert.Len(t, bob.Skipped, 5)
	assert.Equal(t, uint32(5), rc.Key.Index)
}

func TestTakeSkippedKeyConsumes(t *testing.T) {
	alice, bob := twoParties(t)
	require.NoError(t, bob.DHRatchet(alice.SendRatchetKey.Public))
	rc := bob.CurrentReceiverChain()
	require.NoError(t, bob.SkipKeys(rc, 2))

	mk, ok := bob.TakeSkippedKey(rc.RatchetKey, 1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), mk.Index)

	_, ok = bob.TakeSkippedKey(rc.RatchetKey, 1)
	assert.False(t, ok, "a skipped key serves exactly one decryption")
}

func TestReceiverChainRetention(t *testing.T) {
	s := New()
	var keys []domain.X25519Public
	for i := 0; i < maxReceiverChains+2; i++ {
		var k domain.X25519Public
		k[0] = byte(i + 1)
		keys = append(keys, k)
		s.Skipped[skippedID(k, 0)] = ratchet.MessageKeys{}
		s.AddReceiverChain(k, Chain{})
	}

	assert.Len(t, s.Receivers, maxReceiverChains)
	assert.Nil(t, s.ReceiverChainFor(keys[0]))
	assert.Nil(t, s.ReceiverChainFor(keys[1]))
	assert.NotNil(t, s.ReceiverChainFor(keys[2]))

	_, ok := s.Skipped[skippedID(keys[0], 0)]
	assert.False(t, ok, "skipped keys from an evicted chain are dropped")
	_, ok = s.Skipped[skippedID(keys[2], 0)]
	assert.True(t, ok)
}

func TestRecordRoundTrip(t *testing.T) {
	alice, bob := twoParties(t)
	require.NoError(t, bob.DHRatchet(alice.SendRatchetKey.Public))
	rc := bob.CurrentReceiverChain()
	require.NoError(t, bob.SkipKeys(rc, 3))
	bob.PendingPreKey = &PendingPreKey{
		SignedPreKeyID: 7,
		KEMPreKeyID:    3,
		KEMCiphertext:  []byte{1, 2, 3},
		BaseKey:        alice.SendRatchetKey.Public,
	}

	raw, err := bob.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, bob, got)
}

func TestUnmarshalRejectsBadRecords(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	assert.ErrorIs(t, err, domain.ErrMalformedMessage)

	_, err = Unmarshal([]byte(`{"version":9}`))
	assert.ErrorIs(t, err, domain.ErrVersionMismatch)
}
