package wire

import (
	"crypto/ed25519"
	"fmt"

	"whisperkit/internal/domain"
)

// kemSeedSize is the ML-KEM-1024 decapsulation seed length.
const kemSeedSize = 64

// PreKeyRecord is the stored form of a one-time pre-key:
// id(uvarint) ‖ pub(33) ‖ priv(32).
type PreKeyRecord struct {
	ID      uint32
	KeyPair domain.KeyPair
}

// Serialize returns the record's canonical byte form.
func (r PreKeyRecord) Serialize() []byte {
	out := appendUvarint(nil, uint64(r.ID))
	out = append(out, EncodePublicKey(r.KeyPair.Public)...)
	out = append(out, r.KeyPair.Private[:]...)
	return out
}

// ParsePreKeyRecord decodes a stored one-time pre-key.
func ParsePreKeyRecord(b []byte) (PreKeyRecord, error) {
	r := &reader{buf: b}
	id, err := r.uvarint32()
	if err != nil {
		return PreKeyRecord{}, err
	}
	kp, err := readKeyPair(r)
	if err != nil {
		return PreKeyRecord{}, err
	}
	if r.remaining() != 0 {
		return PreKeyRecord{}, fmt.Errorf("%w: trailing bytes in pre-key record", domain.ErrMalformedMessage)
	}
	return PreKeyRecord{ID: id, KeyPair: kp}, nil
}

// SignedPreKeyRecord adds the identity signature and creation time:
// id(uvarint) ‖ pub(33) ‖ priv(32) ‖ sig(64) ‖ timestamp(uvarint).
type SignedPreKeyRecord struct {
	ID        uint32
	KeyPair   domain.KeyPair
	Signature []byte
	Timestamp int64
}

// Serialize returns the record's canonical byte form.
func (r SignedPreKeyRecord) Serialize() []byte {
	out := appendUvarint(nil, uint64(r.ID))
	out = append(out, EncodePublicKey(r.KeyPair.Public)...)
	out = append(out, r.KeyPair.Private[:]...)
	out = append(out, r.Signature...)
	out = appendUvarint(out, uint64(r.Timestamp))
	return out
}

// ParseSignedPreKeyRecord decodes a stored signed pre-key.
func ParseSignedPreKeyRecord(b []byte) (SignedPreKeyRecord, error) {
	r := &reader{buf: b}
	id, err := r.uvarint32()
	if err != nil {
		return SignedPreKeyRecord{}, err
	}
	kp, err := readKeyPair(r)
	if err != nil {
		return SignedPreKeyRecord{}, err
	}
	sig, err := r.take(ed25519.SignatureSize)
	if err != nil {
		return SignedPreKeyRecord{}, err
	}
	ts, err := r.uvarint()
	if err != nil {
		return SignedPreKeyRecord{}, err
	}
	if r.remaining() != 0 {
		return SignedPreKeyRecord{}, fmt.Errorf("%w: trailing bytes in signed pre-key record", domain.ErrMalformedMessage)
	}
	return SignedPreKeyRecord{
		ID:        id,
		KeyPair:   kp,
		Signature: append([]byte(nil), sig...),
		Timestamp: int64(ts),
	}, nil
}

// KEMPreKeyRecord is the stored ML-KEM pre-key:
// id(uvarint) ‖ encapLen(uvarint) ‖ encapKey ‖ seed(64) ‖ sig(64) ‖
// timestamp(uvarint).
type KEMPreKeyRecord struct {
	ID        uint32
	EncapKey  []byte
	Seed      []byte
	Signature []byte
	Timestamp int64
}

// Serialize returns the record's canonical byte form.
func (r KEMPreKeyRecord) Serialize() []byte {
	out := appendUvarint(nil, uint64(r.ID))
	out = appendUvarint(out, uint64(len(r.EncapKey)))
	out = append(out, r.EncapKey...)
	out = append(out, r.Seed...)
	out = append(out, r.Signature...)
	out = appendUvarint(out, uint64(r.Timestamp))
	return out
}

// ParseKEMPreKeyRecord decodes a stored KEM pre-key.
func ParseKEMPreKeyRecord(b []byte) (KEMPreKeyRecord, error) {
	r := &reader{buf: b}
	id, err := r.uvarint32()
	if err != nil {
		return KEMPreKeyRecord{}, err
	}
	encapLen, err := r.uvarint()
	if err != nil {
		return KEMPreKeyRecord{}, err
	}
	encap, err := r.take(int(encapLen))
	if err != nil {
		return KEMPreKeyRecord{}, err
	}
	seed, err := r.take(kemSeedSize)
	if err != nil {
		return KEMPreKeyRecord{}, err
	}
	sig, err := r.take(ed25519.SignatureSize)
	if err != nil {
		return KEMPreKeyRecord{}, err
	}
	ts, err := r.uvarint()
	if err != nil {
		return KEMPreKeyRecord{}, err
	}
	if r.remaining() != 0 {
		return KEMPreKeyRecord{}, fmt.Errorf("%w: trailing bytes in KEM pre-key record", domain.ErrMalformedMessage)
	}
	return KEMPreKeyRecord{
		ID:        id,
		EncapKey:  append([]byte(nil), encap...),
		Seed:      append([]byte(nil), seed...),
		Signature: append([]byte(nil), sig...),
		Timestamp: int64(ts),
	}, nil
}

func readKeyPair(r *reader) (domain.KeyPair, error) {
	pubBytes, err := r.take(PublicKeySize)
	if err != nil {
		return domain.KeyPair{}, err
	}
	pub, err := DecodePublicKey(pubBytes)
	if err != nil {
		return domain.KeyPair{}, err
	}
	privBytes, err := r.take(32)
	if err != nil {
		return domain.KeyPair{}, err
	}
	var priv domain.X25519Private
	copy(priv[:], privBytes)
	return domain.KeyPair{Private: priv, Public: pub}, nil
}
