// Package session holds the aggregate ratchet state for one peer: the
// current root key, sending chain, archived receiving chains, the skipped
// message-key store, the post-quantum ratchet, and handshake bookkeeping.
//
// A State is a single-writer resource. Encrypt and decrypt against the same
// State must be serialized by the caller; operations against different
// sessions are fully independent.
package session

import (
	"fmt"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/ratchet"
	"whisperkit/internal/protocol/spqr"
)

const (
	// MaxSkip bounds both the chain-index gap a single message may open and
	// the total number of parked message keys. Protocol constant; exceeding
	// it rejects the message rather than silently evicting older keys.
	MaxSkip = 2000

	// maxReceiverChains is how many previous receiving chains are kept to
	// serve messages still in flight on an old chain.
	maxReceiverChains = 5

	// recordVersion tags serialized session records.
	recordVersion = 1
)

// Chain couples a symmetric chain key with the post-quantum epoch it
// belongs to. Every message sent on the chain mixes the epoch's PQ key into
// its message keys.
type Chain struct {
	Key ratchet.ChainKey `json:"chain"`
	PQ  spqr.State       `json:"pq"`
}

// ReceiverChain is a receiving chain indexed by the peer ratchet key that
// created it.
type ReceiverChain struct {
	RatchetKey domain.X25519Public `json:"ratchet_key"`
	Chain
}

// PendingPreKey records the handshake material the initiator keeps
// re-sending until the responder's first reply proves the session is
// established.
type PendingPreKey struct {
	PreKeyID       uint32              `json:"pre_key_id"`
	SignedPreKeyID uint32              `json:"signed_pre_key_id"`
	KEMPreKeyID    uint32              `json:"kem_pre_key_id"`
	KEMCiphertext  []byte              `json:"kem_ciphertext"`
	BaseKey        domain.X25519Public `json:"base_key"`
}

// State is the aggregate root. Created once per (local, remote) identity
// pair by the session initializer, mutated in place by every encrypt and
// decrypt, persisted between calls by an external store.
type State struct {
	Version uint8 `json:"version"`

	LocalIdentity  domain.X25519Public `json:"local_identity"`
	RemoteIdentity domain.X25519Public `json:"remote_identity"`

	LocalRegistrationID  uint32 `json:"local_registration_id"`
	RemoteRegistrationID uint32 `json:"remote_registration_id"`

	RootKey        ratchet.RootKey     `json:"root_key"`
	SendRatchetKey domain.KeyPair      `json:"send_ratchet_key"`
	PeerRatchetKey domain.X25519Public `json:"peer_ratchet_key"`

	// Sending is nil for a responder that has not yet performed its first
	// DH ratchet step.
	Sending *Chain `json:"sending,omitempty"`

	// Receivers[0] is the current receiving chain; the rest are archived
	// previous chains, newest first.
	Receivers []ReceiverChain `json:"receivers"`

	// PrevCounter is the length of the previous sending chain, carried in
	// every outgoing message header.
	PrevCounter uint32 `json:"prev_counter"`

	// Skipped parks message keys for traffic that arrived out of order,
	// keyed by skippedID(ratchet key, index).
	Skipped map[string]ratchet.MessageKeys `json:"skipped"`

	// PQ is the current post-quantum ratchet root. It advances alongside
	// every root-key derivation; each chain captures the epoch that was
	// current when the chain was created.
	PQ spqr.State `json:"pq_state"`

	PendingPreKey *PendingPreKey `json:"pending_pre_key,omitempty"`
}

// New returns an empty state shell with the record version set. The
// initializer package fills in the key material.
func New() *State {
	return &State{
		Version: recordVersion,
		Skipped: make(map[string]ratchet.MessageKeys),
	}
}

// Established reports whether the handshake has been acknowledged: true for
// a responder from creation, true for an initiator once the first message
// from the peer decrypted.
func (s *State) Established() bool { return s.PendingPreKey == nil }

// Usable reports whether the session can encrypt, i.e. has a sending chain.
func (s *State) Usable() bool { return s.Sending != nil }

// ClearPendingPreKey marks the handshake complete.
func (s *State) ClearPendingPreKey() { s.PendingPreKey = nil }

// Clone deep-copies the state so a decrypt can stage every mutation and
// commit only after authentication succeeds.
func (s *State) Clone() *State {
	c := *s
	if s.Sending != nil {
		sending := *s.Sending
		c.Sending = &sending
	}
	c.Receivers = append([]ReceiverChain(nil), s.Receivers...)
	c.Skipped = make(map[string]ratchet.MessageKeys, len(s.Skipped))
	for k, v := range s.Skipped {
		c.Skipped[k] = v
	}
	if s.PendingPreKey != nil {
		pp := *s.PendingPreKey
		pp.KEMCiphertext = append([]byte(nil), s.PendingPreKey.KEMCiphertext...)
		c.PendingPreKey = &pp
	}
	return &c
}

// ReceiverChainFor returns the receiving chain created by the given peer
// ratchet key, or nil if none is retained.
func (s *State) ReceiverChainFor(key domain.X25519Public) *ReceiverChain {
	for i := range s.Receivers {
		if s.Receivers[i].RatchetKey == key {
			return &s.Receivers[i]
		}
	}
	return nil
}

// CurrentReceiverChain returns the newest receiving chain, or nil.
func (s *State) CurrentReceiverChain() *ReceiverChain {
	if len(s.Receivers) == 0 {
		return nil
	}
	return &s.Receivers[0]
}

// AddReceiverChain installs a new current receiving chain, archiving the
// previous ones and dropping the oldest beyond the retention bound.
// Skipped keys derived from a dropped chain are evicted with it.
func (s *State) AddReceiverChain(key domain.X25519Public, chain Chain) {
	s.Receivers = append([]ReceiverChain{{RatchetKey: key, Chain: chain}}, s.Receivers...)
	for len(s.Receivers) > maxReceiverChains {
		dropped := s.Receivers[len(s.Receivers)-1]
		s.Receivers = s.Receivers[:len(s.Receivers)-1]
		for id := range s.Skipped {
			if idMatchesKey(id, dropped.RatchetKey) {
				delete(s.Skipped, id)
			}
		}
	}
}

// DHRatchet performs one asymmetric ratchet step for a newly observed peer
// ratchet key: derive the receiving chain from the old pair, generate a
// fresh pair, derive the sending chain, and fold both DH outputs into the
// post-quantum root. Must not be applied twice for the same peer key; the
// caller checks against the stored key first.
func (s *State) DHRatchet(theirKey domain.X25519Public) error {
	if theirKey == s.PeerRatchetKey && s.ReceiverChainFor(theirKey) != nil {
		return fmt.Errorf("ratchet step already applied for peer key")
	}

	// Receiving half: old pair against the new peer key.
	dhRecv, err := crypto.DH(s.SendRatchetKey.Private, theirKey)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}
	recvEpoch := s.PQ
	rootAfterRecv, recvChain := s.RootKey.Derive(dhRecv)
	s.PQ.RatchetStep(dhRecv)
	crypto.Wipe(dhRecv[:])

	// Sending half: fresh pair against the new peer key.
	newPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	dhSend, err := crypto.DH(newPair.Private, theirKey)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}
	sendEpoch := s.PQ
	rootAfterSend, sendChain := rootAfterRecv.Derive(dhSend)
	s.PQ.RatchetStep(dhSend)
	crypto.Wipe(dhSend[:])

	if s.Sending != nil {
		s.PrevCounter = s.Sending.Key.Index
	}
	s.AddReceiverChain(theirKey, Chain{Key: recvChain, PQ: recvEpoch})
	s.PeerRatchetKey = theirKey
	s.SendRatchetKey = newPair
	s.Sending = &Chain{Key: sendChain, PQ: sendEpoch}
	s.RootKey = rootAfterSend
	return nil
}
