// Package spqr implements the sparse post-quantum ratchet: a 32-byte root
// mixed with KEM-derived and Diffie-Hellman secrets that advances only at
// DH-ratchet boundaries. All messages within one DH epoch share one PQ key,
// which is what lets out-of-order messages inside an epoch still decrypt.
package spqr

import (
	"crypto/subtle"
	"fmt"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
)

const (
	// Version is the SPQR wire payload version.
	Version = 1

	// WireSize is the serialized payload size: [version:1][root:32].
	WireSize = 33

	epochKeyLabel = 0x02
)

// State is the PQ ratchet root for one epoch. The zero value is not usable;
// seed it from the handshake's pqrAuthKey output.
type State struct {
	Root [32]byte `json:"root"`
}

// NewState seeds a PQ ratchet from handshake output.
func NewState(root [32]byte) State {
	return State{Root: root}
}

// Send returns the current epoch's message-key contribution and the wire
// payload the receiver uses to detect desynchronization. Pure; Send never
// advances the ratchet.
func (s State) Send() (key [32]byte, wire []byte) {
	return s.epochKey(), s.wirePayload()
}

// Receive validates a peer's wire payload against this epoch and returns
// the same epoch key. It never mutates state: a mismatch means the parties
// disagree about the current epoch and the message must be rejected.
func (s State) Receive(wire []byte) ([32]byte, error) {
	if len(wire) != WireSize {
		return [32]byte{}, fmt.Errorf("%w: spqr payload is %d bytes, want %d",
			domain.ErrMalformedMessage, len(wire), WireSize)
	}
	if wire[0] != Version {
		return [32]byte{}, fmt.Errorf("%w: spqr version %d", domain.ErrVersionMismatch, wire[0])
	}
	if subtle.ConstantTimeCompare(wire[1:], s.Root[:]) != 1 {
		return [32]byte{}, fmt.Errorf("%w: spqr epoch mismatch", domain.ErrAuthenticationFailed)
	}
	return s.epochKey(), nil
}

// RatchetStep folds a DH-ratchet shared secret into the root. This is the
// only mutator, invoked exactly once per root-KDF application so both
// parties walk the same epoch sequence.
func (s *State) RatchetStep(dhSecret [32]byte) {
	s.Root = crypto.HMACSHA256(s.Root[:], dhSecret[:])
}

func (s State) epochKey() [32]byte {
	return crypto.HMACSHA256(s.Root[:], []byte{epochKeyLabel})
}

func (s State) wirePayload() []byte {
	out := make([]byte, WireSize)
	out[0] = Version
	copy(out[1:], s.Root[:])
	return out
}
