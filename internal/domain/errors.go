package domain

import "errors"

// Protocol error kinds. All are terminal for the message that produced them;
// none are retried internally. Callers match with errors.Is.
var (
	// ErrInvalidKeyMaterial reports a key of the wrong length or format.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrSignatureVerification reports a signed pre-key whose signature does
	// not verify against the claimed identity key.
	ErrSignatureVerification = errors.New("signature verification failed")

	// ErrAuthenticationFailed reports a MAC or padding check failure on
	// decrypt. It deliberately does not distinguish the two.
	ErrAuthenticationFailed = errors.New("message authentication failed")

	// ErrUnknownMessage reports a chain index that was already consumed or
	// fell below the retention window.
	ErrUnknownMessage = errors.New("unknown message")

	// ErrSkipWindowExceeded reports a chain-index gap larger than the
	// configured maximum skip.
	ErrSkipWindowExceeded = errors.New("message skip window exceeded")

	// ErrMalformedMessage reports a parse or deserialize failure.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrVersionMismatch reports an unsupported protocol version byte.
	ErrVersionMismatch = errors.New("protocol version mismatch")

	// ErrUntrustedIdentity reports an identity key that conflicts with the
	// one previously seen for the peer.
	ErrUntrustedIdentity = errors.New("untrusted identity key")
)
