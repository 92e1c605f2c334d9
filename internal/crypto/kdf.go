package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HMACSHA256 returns the HMAC-SHA256 of data under key.
func HMACSHA256(key, data []byte) [32]byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HKDFSHA256 expands ikm into outLen bytes with HKDF-SHA256. A nil salt is
// treated as a zero-filled hash-length salt per RFC 5869.
func HKDFSHA256(ikm, salt, info []byte, outLen int) []byte {
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, outLen)
	// Entropy limit is 255*32 bytes; all callers stay far below it.
	if _, err := io.ReadFull(r, out); err != nil {
		panic(err)
	}
	return out
}
