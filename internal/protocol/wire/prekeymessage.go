package wire

import (
	"fmt"

	"whisperkit/internal/domain"
)

// PreKeyMessage wraps a whisper message with the handshake material the
// responder needs to establish the session:
//
//	version(1) ‖ registrationID(uvarint) ‖ preKeyID(uvarint, 0 = absent) ‖
//	signedPreKeyID(uvarint) ‖ kemPreKeyID(uvarint) ‖ kemCtLen(uvarint) ‖
//	kemCiphertext ‖ baseKey(33) ‖ identityKey(33) ‖ embedded SignalMessage
//
// One-time pre-key IDs are allocated from 1, so 0 on the wire means the
// bundle had none left.
type PreKeyMessage struct {
	Version        uint8
	RegistrationID uint32
	PreKeyID       uint32
	SignedPreKeyID uint32
	KEMPreKeyID    uint32
	KEMCiphertext  []byte
	BaseKey        domain.X25519Public
	IdentityKey    domain.X25519Public
	Message        *SignalMessage

	serialized []byte
}

// NewPreKeyMessage assembles the handshake-carrying variant around an
// already-built whisper message.
func NewPreKeyMessage(
	registrationID, preKeyID, signedPreKeyID, kemPreKeyID uint32,
	kemCiphertext []byte,
	baseKey, identityKey domain.X25519Public,
	msg *SignalMessage,
) *PreKeyMessage {
	inner := msg.Serialized()

	body := make([]byte, 0, 1+4*5+5+len(kemCiphertext)+2*PublicKeySize+len(inner))
	body = append(body, versionByte(CurrentVersion))
	body = appendUvarint(body, uint64(registrationID))
	body = appendUvarint(body, uint64(preKeyID))
	body = appendUvarint(body, uint64(signedPreKeyID))
	body = appendUvarint(body, uint64(kemPreKeyID))
	body = appendUvarint(body, uint64(len(kemCiphertext)))
	body = append(body, kemCiphertext...)
	body = append(body, EncodePublicKey(baseKey)...)
	body = append(body, EncodePublicKey(identityKey)...)
	body = append(body, inner...)

	return &PreKeyMessage{
		Version:        CurrentVersion,
		RegistrationID: registrationID,
		PreKeyID:       preKeyID,
		SignedPreKeyID: signedPreKeyID,
		KEMPreKeyID:    kemPreKeyID,
		KEMCiphertext:  append([]byte(nil), kemCiphertext...),
		BaseKey:        baseKey,
		IdentityKey:    identityKey,
		Message:        msg,
		serialized:     body,
	}
}

// ParsePreKeyMessage decodes the handshake-carrying variant, including the
// embedded whisper message.
func ParsePreKeyMessage(b []byte) (*PreKeyMessage, error) {
	r := &reader{buf: b}

	vb, err := r.byte()
	if err != nil {
		return nil, err
	}
	version, err := parseVersionByte(vb)
	if err != nil {
		return nil, err
	}

	registrationID, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	preKeyID, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	signedPreKeyID, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	kemPreKeyID, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	kemCtLen, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	kemCiphertext, err := r.take(int(kemCtLen))
	if err != nil {
		return nil, err
	}

	baseKeyBytes, err := r.take(PublicKeySize)
	if err != nil {
		return nil, err
	}
	baseKey, err := DecodePublicKey(baseKeyBytes)
	if err != nil {
		return nil, err
	}
	identityKeyBytes, err := r.take(PublicKeySize)
	if err != nil {
		return nil, err
	}
	identityKey, err := DecodePublicKey(identityKeyBytes)
	if err != nil {
		return nil, err
	}

	inner := r.rest()
	if len(inner) == 0 {
		return nil, fmt.Errorf("%w: missing embedded message", domain.ErrMalformedMessage)
	}
	msg, err := ParseSignalMessage(inner)
	if err != nil {
		return nil, err
	}

	return &PreKeyMessage{
		Version:        version,
		RegistrationID: registrationID,
		PreKeyID:       preKeyID,
		SignedPreKeyID: signedPreKeyID,
		KEMPreKeyID:    kemPreKeyID,
		KEMCiphertext:  append([]byte(nil), kemCiphertext...),
		BaseKey:        baseKey,
		IdentityKey:    identityKey,
		Message:        msg,
		serialized:     append([]byte(nil), b...),
	}, nil
}

// Type implements CiphertextMessage.
func (m *PreKeyMessage) Type() int { return PreKeyType }

// Serialized implements CiphertextMessage.
func (m *PreKeyMessage) Serialized() []byte { return m.serialized }
