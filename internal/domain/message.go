package domain

// Username represents a relay-registered identity.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Envelope is what you post to and fetch from the relay. Payload is a
// serialized ciphertext message; Type carries the wire-level discriminant
// (whisper or pre-key) so the receiver can parse without guessing.
type Envelope struct {
	ID        string   `json:"id"`
	From      Username `json:"from"`
	To        Username `json:"to"`
	Type      int      `json:"type"`
	Payload   []byte   `json:"payload"`
	Timestamp int64    `json:"timestamp"`
}

// DecryptedMessage is what the message service returns to callers.
type DecryptedMessage struct {
	From      Username `json:"from"`
	To        Username `json:"to"`
	Plaintext []byte   `json:"plaintext"`
	Timestamp int64    `json:"timestamp"`
}
