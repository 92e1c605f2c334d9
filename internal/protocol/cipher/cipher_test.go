package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/pqxdh"
	"whisperkit/internal/protocol/session"
	"whisperkit/internal/protocol/wire"
)

// establish runs a full handshake and returns both sides ready to talk:
// Alice with a pending pre-key block, Bob bootstrapped from it.
func establish(t *testing.T) (alice, bob *session.State) {
	t.Helper()

	aliceID, err := crypto.NewIdentity()
	require.NoError(t, err)
	bobID, err := crypto.NewIdentity()
	require.NoError(t, err)

	spkPriv, spkPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	spk := domain.SignedPreKeyPair{
		ID:        1,
		Priv:      spkPriv,
		Pub:       spkPub,
		Signature: crypto.SignEd25519(bobID.EdPriv, wire.EncodePublicKey(spkPub)),
	}
	dk, err := crypto.GenerateKEM()
	require.NoError(t, err)
	kem := domain.KEMPreKeyPair{ID: 1, Seed: dk.Bytes(), EncapKey: dk.EncapsulationKey().Bytes()}
	kem.Signature = crypto.SignEd25519(bobID.EdPriv, kem.EncapKey)

	alice, err = pqxdh.InitializeAlice(aliceID, domain.PreKeyBundle{
		Username:              "bob",
		RegistrationID:        bobID.RegistrationID,
		IdentityKey:           bobID.XPub,
		SigningKey:            bobID.EdPub,
		SignedPreKeyID:        spk.ID,
		SignedPreKey:          spk.Pub,
		SignedPreKeySignature: spk.Signature,
		KEMPreKeyID:           kem.ID,
		KEMPreKey:             kem.EncapKey,
		KEMPreKeySignature:    kem.Signature,
	})
	require.NoError(t, err)

	bob, err = pqxdh.InitializeBob(pqxdh.BobParams{
		Identity:            bobID,
		SignedPreKey:        spk,
		KEMPreKey:           kem,
		KEMCiphertext:       alice.PendingPreKey.KEMCiphertext,
		TheirIdentityKey:    aliceID.XPub,
		TheirBaseKey:        alice.PendingPreKey.BaseKey,
		TheirRegistrationID: aliceID.RegistrationID,
	})
	require.NoError(t, err)
	return alice, bob
}

// whisper unwraps the inner whisper message regardless of whether the
// handshake wrapper is still riding along.
func whisper(t *testing.T, m wire.CiphertextMessage) *wire.SignalMessage {
	t.Helper()
	switch v := m.(type) {
	case *wire.SignalMessage:
		return v
	case *wire.PreKeyMessage:
		return v.Message
	default:
		t.Fatalf("unexpected message type %d", m.Type())
		return nil
	}
}

func send(t *testing.T, s *session.State, plaintext string) *wire.SignalMessage {
	t.Helper()
	m, err := Encrypt(s, []byte(plaintext))
	require.NoError(t, err)
	return whisper(t, m)
}

// transit serializes and reparses, as a relay hop would.
func transit(t *testing.T, m *wire.SignalMessage) *wire.SignalMessage {
	t.Helper()
	parsed, err := wire.ParseSignalMessage(m.Serialized())
	require.NoError(t, err)
	return parsed
}

func TestRoundTripBothDirections(t *testing.T) {
	alice, bob := establish(t)

	m1 := send(t, alice, "hello bob")
	pt, err := Decrypt(bob, transit(t, m1))
	require.NoError(t, err)
	assert.Equal(t, "hello bob", string(pt))

	r1 := send(t, bob, "hello alice")
	pt, err = Decrypt(alice, transit(t, r1))
	require.NoError(t, err)
	assert.Equal(t, "hello alice", string(pt))

	// A long conversation with a ratchet step on every turnaround.
	for i := 0; i < 10; i++ {
		m := send(t, alice, "ping")
		pt, err := Decrypt(bob, transit(t, m))
		require.NoError(t, err)
		assert.Equal(t, "ping", string(pt))

		r := send(t, bob, "pong")
		pt, err = Decrypt(alice, transit(t, r))
		require.NoError(t, err)
		assert.Equal(t, "pong", string(pt))
	}
}

func TestPreKeyWrapperCarriedUntilReply(t *testing.T) {
	alice, bob := establish(t)

	m1, err := Encrypt(alice, []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, wire.PreKeyType, m1.Type())
	m2, err := Encrypt(alice, []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, wire.PreKeyType, m2.Type(), "wrapper rides until the peer replies")

	_, err = Decrypt(bob, transit(t, whisper(t, m1)))
	require.NoError(t, err)
	_, err = Decrypt(alice, transit(t, send(t, bob, "ack")))
	require.NoError(t, err)

	assert.True(t, alice.Established())
	m3, err := Encrypt(alice, []byte("three"))
	require.NoError(t, err)
	assert.Equal(t, wire.WhisperType, m3.Type())
}

func TestOutOfOrderWithinChain(t *testing.T) {
	alice, bob := establish(t)

	m0 := send(t, alice, "zero")
	m1 := send(t, alice, "one")
	m2 := send(t, alice, "two")

	pt, err := Decrypt(bob, transit(t, m2))
	require.NoError(t, err)
	assert.Equal(t, "two", string(pt))

	pt, err = Decrypt(bob, transit(t, m0))
	require.NoError(t, err)
	assert.Equal(t, "zero", string(pt))

	pt, err = Decrypt(bob, transit(t, m1))
	require.NoError(t, err)
	assert.Equal(t, "one", string(pt))
}

func TestReplayRejected(t *testing.T) {
	alice, bob := establish(t)

	m0 := send(t, alice, "zero")
	m1 := send(t, alice, "one")

	_, err := Decrypt(bob, transit(t, m0))
	require.NoError(t, err)

	_, err = Decrypt(bob, transit(t, m0))
	assert.ErrorIs(t, err, domain.ErrUnknownMessage)

	// The failed replay must not have disturbed the chain.
	pt, err := Decrypt(bob, transit(t, m1))
	require.NoError(t, err)
	assert.Equal(t, "one", string(pt))
}

func TestSkipWindowBound(t *testing.T) {
	alice, bob := establish(t)

	for i := 0; i < session.MaxSkip+1; i++ {
		alice.Sending.Key = alice.Sending.Key.Advance()
	}
	far := send(t, alice, "too far ahead")

	_, err := Decrypt(bob, transit(t, far))
	assert.ErrorIs(t, err, domain.ErrSkipWindowExceeded)
	assert.Empty(t, bob.Skipped, "rejected message must not leave parked keys")
	assert.Nil(t, bob.CurrentReceiverChain(), "rejected message must not install a chain")
}

func TestOldChainMessageAfterRatchet(t *testing.T) {
	alice, bob := establish(t)

	a0 := send(t, alice, "a0")
	a1 := send(t, alice, "a1")

	_, err := Decrypt(bob, transit(t, a0))
	require.NoError(t, err)

	// Turnaround ratchets Alice onto a fresh chain before a1 is delivered.
	_, err = Decrypt(alice, transit(t, send(t, bob, "reply")))
	require.NoError(t, err)
	b0 := send(t, alice, "new chain")

	pt, err := Decrypt(bob, transit(t, b0))
	require.NoError(t, err)
	assert.Equal(t, "new chain", string(pt))

	// a1 arrives late, on the previous chain.
	pt, err = Decrypt(bob, transit(t, a1))
	require.NoError(t, err)
	assert.Equal(t, "a1", string(pt))
}

func TestTamperedMessageLeavesStateIntact(t *testing.T) {
	alice, bob := establish(t)

	m0 := send(t, alice, "genuine")
	raw := append([]byte(nil), m0.Serialized()...)
	raw[len(raw)-wire.MacSize-1] ^= 0x01
	forged, err := wire.ParseSignalMessage(raw)
	require.NoError(t, err)

	_, err = Decrypt(bob, forged)
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.Nil(t, bob.CurrentReceiverChain(), "failed decrypt must not commit ratchet movement")

	pt, err := Decrypt(bob, transit(t, m0))
	require.NoError(t, err)
	assert.Equal(t, "genuine", string(pt))
}

func TestEncryptRequiresSendingChain(t *testing.T) {
	s := session.New()
	_, err := Encrypt(s, []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidKeyMaterial)
}

func TestEmptyPlaintextRoundTrip(t *testing.T) {
	alice, bob := establish(t)

	m := send(t, alice, "")
	pt, err := Decrypt(bob, transit(t, m))
	require.NoError(t, err)
	assert.Empty(t, pt)
}
