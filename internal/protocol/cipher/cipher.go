// Package cipher is the session cipher: it turns plaintext into wire
// messages and back, driving the symmetric chains, the DH ratchet and the
// post-quantum ratchet as a side effect.
//
// Decrypt is atomic. Every mutation runs against a staged copy of the
// state, committed only after the message authenticated and decrypted, so
// a forged or garbled message can never burn keys or desynchronize the
// ratchet.
package cipher

import (
	"fmt"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/ratchet"
	"whisperkit/internal/protocol/session"
	"whisperkit/internal/protocol/wire"
)

// Encrypt produces the next outgoing message and advances the sending
// chain. While the handshake is unacknowledged the whisper message is
// wrapped in a pre-key message carrying the handshake material.
func Encrypt(s *session.State, plaintext []byte) (wire.CiphertextMessage, error) {
	if !s.Usable() {
		return nil, fmt.Errorf("%w: session has no sending chain", domain.ErrInvalidKeyMaterial)
	}

	pqKey, pqWire := s.Sending.PQ.Send()
	mk := s.Sending.Key.MessageKeys(pqKey)
	ciphertext := crypto.EncryptCBC(mk.CipherKey, mk.IV, plaintext)

	msg, err := wire.NewSignalMessage(
		mk.MacKey,
		s.LocalIdentity, s.RemoteIdentity,
		s.SendRatchetKey.Public,
		mk.Index, s.PrevCounter,
		pqWire, ciphertext,
	)
	if err != nil {
		return nil, err
	}
	s.Sending.Key = s.Sending.Key.Advance()

	if pp := s.PendingPreKey; pp != nil {
		return wire.NewPreKeyMessage(
			s.LocalRegistrationID,
			pp.PreKeyID, pp.SignedPreKeyID, pp.KEMPreKeyID,
			pp.KEMCiphertext,
			pp.BaseKey, s.LocalIdentity,
			msg,
		), nil
	}
	return msg, nil
}

// Decrypt authenticates and decrypts an incoming whisper message. On any
// error the state is untouched; on success all ratchet movement the message
// caused is committed and the handshake, if pending, is marked complete.
func Decrypt(s *session.State, msg *wire.SignalMessage) ([]byte, error) {
	staged := s.Clone()
	plaintext, err := decrypt(staged, msg)
	if err != nil {
		return nil, err
	}
	staged.ClearPendingPreKey()
	*s = *staged
	return plaintext, nil
}

func decrypt(s *session.State, msg *wire.SignalMessage) ([]byte, error) {
	// A parked key means the message was skipped earlier; its keys are
	// already bound to the chain and PQ epoch they came from.
	if mk, ok := s.TakeSkippedKey(msg.RatchetKey, msg.Counter); ok {
		return openMessage(s, msg, mk)
	}

	chain := s.ReceiverChainFor(msg.RatchetKey)
	if chain == nil {
		// New ratchet key. Park the tail of the current chain first so
		// messages still in flight on it stay decryptable.
		if current := s.CurrentReceiverChain(); current != nil {
			if err := s.SkipKeys(current, msg.PrevCounter); err != nil {
				return nil, err
			}
		}
		if err := s.DHRatchet(msg.RatchetKey); err != nil {
			return nil, err
		}
		chain = s.CurrentReceiverChain()
	} else if msg.Counter < chain.Key.Index {
		// The chain moved past this counter and no key is parked: either a
		// replay or a key evicted long ago.
		return nil, fmt.Errorf("%w: message key %d already consumed", domain.ErrUnknownMessage, msg.Counter)
	}

	if err := s.SkipKeys(chain, msg.Counter); err != nil {
		return nil, err
	}

	pqKey, err := chain.PQ.Receive(msg.SPQR)
	if err != nil {
		return nil, err
	}
	mk := chain.Key.MessageKeys(pqKey)
	chain.Key = chain.Key.Advance()
	return openMessage(s, msg, mk)
}

func openMessage(s *session.State, msg *wire.SignalMessage, mk ratchet.MessageKeys) ([]byte, error) {
	if err := msg.VerifyMac(mk.MacKey, s.RemoteIdentity, s.LocalIdentity); err != nil {
		return nil, err
	}
	return crypto.DecryptCBC(mk.CipherKey, mk.IV, msg.Ciphertext)
}
