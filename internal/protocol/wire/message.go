package wire

import (
	"fmt"

	"whisperkit/internal/domain"
)

// CurrentVersion is the protocol version produced and accepted by this
// implementation: the hybrid post-quantum session version.
const CurrentVersion = 4

// Message type discriminants for the CiphertextMessage union. Values are
// part of the transport contract.
const (
	WhisperType   = 2
	PreKeyType    = 3
	SenderKeyType = 4 // group fan-out; reserved, not produced here
	PlaintextType = 5
)

// CiphertextMessage is the closed union over the message variants. Dispatch
// on Type, never on runtime type inspection.
type CiphertextMessage interface {
	// Type returns the wire discriminant.
	Type() int
	// Serialized returns the canonical byte form the variant owns.
	Serialized() []byte
}

// versionByte packs the message version into the high nibble and the
// current protocol version into the low nibble.
func versionByte(msgVersion uint8) byte {
	return byte(msgVersion<<4 | CurrentVersion)
}

func parseVersionByte(b byte) (uint8, error) {
	if b&0x0F != CurrentVersion {
		return 0, fmt.Errorf("%w: version byte 0x%02x", domain.ErrVersionMismatch, b)
	}
	v := b >> 4
	if v != CurrentVersion {
		return 0, fmt.Errorf("%w: message version %d", domain.ErrVersionMismatch, v)
	}
	return v, nil
}

// Parse decodes a serialized ciphertext message according to its
// discriminant.
func Parse(typ int, b []byte) (CiphertextMessage, error) {
	switch typ {
	case WhisperType:
		return ParseSignalMessage(b)
	case PreKeyType:
		return ParsePreKeyMessage(b)
	case PlaintextType:
		return &PlaintextMessage{Body: append([]byte(nil), b...)}, nil
	default:
		return nil, fmt.Errorf("%w: message type %d", domain.ErrMalformedMessage, typ)
	}
}

// PlaintextMessage is the unencrypted variant. It exists so transports can
// carry pre-session traffic through the same tagged union; the session
// cipher never produces it.
type PlaintextMessage struct {
	Body []byte
}

// Type implements CiphertextMessage.
func (m *PlaintextMessage) Type() int { return PlaintextType }

// Serialized implements CiphertextMessage.
func (m *PlaintextMessage) Serialized() []byte { return m.Body }
