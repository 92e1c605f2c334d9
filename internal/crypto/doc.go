// Package crypto exposes the minimal primitives used by whisperkit.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - ML-KEM-1024 key encapsulation (GenerateKEM, Encapsulate,
//     Decapsulate)
//   - AES-256-CBC with PKCS#7 padding (EncryptCBC, DecryptCBC)
//   - HMAC-SHA256 and HKDF-SHA256 helpers (HMACSHA256, HKDFSHA256)
//   - Passphrase-based envelopes for at-rest key storage (EncryptSecret,
//     DecryptSecret)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// All functions return fixed-size array types defined in internal/domain to
// avoid accidental reallocations. Callers should treat returned secrets as
// sensitive and rely on Wipe when practical to reduce lifetime in memory.
package crypto
