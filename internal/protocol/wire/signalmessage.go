package wire

import (
	"crypto/hmac"
	"fmt"

	"whisperkit/internal/crypto"
	"whisperkit/internal/domain"
	"whisperkit/internal/protocol/spqr"
)

// MacSize is the truncated HMAC-SHA256 length appended to every whisper
// message. Fixed by the interoperating protocol.
const MacSize = 8

// SignalMessage is the post-handshake ("whisper") message:
//
//	version(1) ‖ ratchetKey(33) ‖ counter(uvarint) ‖ prevCounter(uvarint) ‖
//	spqr(33) ‖ ctLen(uvarint) ‖ ciphertext ‖ mac(8)
//
// The MAC covers the serialized sender and receiver identity keys followed
// by everything before the MAC itself.
type SignalMessage struct {
	Version     uint8
	RatchetKey  domain.X25519Public
	Counter     uint32
	PrevCounter uint32
	SPQR        []byte
	Ciphertext  []byte

	serialized []byte
}

// NewSignalMessage builds and MACs a whisper message.
func NewSignalMessage(
	macKey [32]byte,
	senderIdentity, receiverIdentity domain.X25519Public,
	ratchetKey domain.X25519Public,
	counter, prevCounter uint32,
	spqrPayload, ciphertext []byte,
) (*SignalMessage, error) {
	if len(spqrPayload) != spqr.WireSize {
		return nil, fmt.Errorf("%w: spqr payload is %d bytes", domain.ErrMalformedMessage, len(spqrPayload))
	}

	body := make([]byte, 0, 1+PublicKeySize+5+5+spqr.WireSize+5+len(ciphertext)+MacSize)
	body = append(body, versionByte(CurrentVersion))
	body = append(body, EncodePublicKey(ratchetKey)...)
	body = appendUvarint(body, uint64(counter))
	body = appendUvarint(body, uint64(prevCounter))
	body = append(body, spqrPayload...)
	body = appendUvarint(body, uint64(len(ciphertext)))
	body = append(body, ciphertext...)

	mac := computeMac(macKey, senderIdentity, receiverIdentity, body)
	body = append(body, mac...)

	return &SignalMessage{
		Version:     CurrentVersion,
		RatchetKey:  ratchetKey,
		Counter:     counter,
		PrevCounter: prevCounter,
		SPQR:        append([]byte(nil), spqrPayload...),
		Ciphertext:  append([]byte(nil), ciphertext...),
		serialized:  body,
	}, nil
}

// ParseSignalMessage decodes a serialized whisper message. The MAC is not
// verified here; callers verify it once the message keys are known.
func ParseSignalMessage(b []byte) (*SignalMessage, error) {
	r := &reader{buf: b}

	vb, err := r.byte()
	if err != nil {
		return nil, err
	}
	version, err := parseVersionByte(vb)
	if err != nil {
		return nil, err
	}

	keyBytes, err := r.take(PublicKeySize)
	if err != nil {
		return nil, err
	}
	ratchetKey, err := DecodePublicKey(keyBytes)
	if err != nil {
		return nil, err
	}

	counter, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	prevCounter, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	spqrPayload, err := r.take(spqr.WireSize)
	if err != nil {
		return nil, err
	}
	ctLen, err := r.uvarint32()
	if err != nil {
		return nil, err
	}
	ciphertext, err := r.take(int(ctLen))
	if err != nil {
		return nil, err
	}
	if r.remaining() != MacSize {
		return nil, fmt.Errorf("%w: %d trailing bytes, want %d", domain.ErrMalformedMessage, r.remaining(), MacSize)
	}

	return &SignalMessage{
		Version:     version,
		RatchetKey:  ratchetKey,
		Counter:     counter,
		PrevCounter: prevCounter,
		SPQR:        append([]byte(nil), spqrPayload...),
		Ciphertext:  append([]byte(nil), ciphertext...),
		serialized:  append([]byte(nil), b...),
	}, nil
}

// VerifyMac recomputes the truncated MAC in constant time.
func (m *SignalMessage) VerifyMac(macKey [32]byte, senderIdentity, receiverIdentity domain.X25519Public) error {
	body := m.serialized[:len(m.serialized)-MacSize]
	want := m.serialized[len(m.serialized)-MacSize:]
	got := computeMac(macKey, senderIdentity, receiverIdentity, body)
	if !hmac.Equal(got, want) {
		return fmt.Errorf("%w: bad mac", domain.ErrAuthenticationFailed)
	}
	return nil
}

// Type implements CiphertextMessage.
func (m *SignalMessage) Type() int { return WhisperType }

// Serialized implements CiphertextMessage.
func (m *SignalMessage) Serialized() []byte { return m.serialized }

func computeMac(macKey [32]byte, senderIdentity, receiverIdentity domain.X25519Public, body []byte) []byte {
	input := make([]byte, 0, 2*PublicKeySize+len(body))
	input = append(input, EncodePublicKey(senderIdentity)...)
	input = append(input, EncodePublicKey(receiverIdentity)...)
	input = append(input, body...)
	full := crypto.HMACSHA256(macKey[:], input)
	return full[:MacSize]
}
